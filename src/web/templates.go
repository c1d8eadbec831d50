package web

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// parseTemplates 每个页面一套模板: layout + 页面自己的content
func (s *Server) parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageTitles))
	for page := range pageTitles {
		tmpl, err := template.New(page).Funcs(s.funcs()).ParseFS(templateFS,
			"templates/layout.html", fmt.Sprintf("templates/%s.html", page))
		if err != nil {
			return nil, fmt.Errorf("解析模板 %s 失败: %w", page, err)
		}
		pages[page] = tmpl
	}
	return pages, nil
}
