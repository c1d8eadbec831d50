package web

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"CuryDashboard/src/config"
	"CuryDashboard/src/processor"
)

const dateLayout = "2006-01-02"

// filterQuery 侧边栏提交的查询参数
// ?cutoff=2022-04-13&traffic=Low&traffic=Jam
type filterQuery struct {
	Cutoff  string   `validate:"required,datetime=2006-01-02"`
	Traffic []string `validate:"dive,traffic"`
}

type pageParam struct {
	Page string `validate:"oneof=company courier restaurant"`
}

// newValidator 注册traffic校验，可选值每次从DataConfig读取
func newValidator(dcfg *config.DataConfig) *validator.Validate {
	v := validator.New()
	v.RegisterValidation("traffic", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, option := range dcfg.GetTrafficOptions() {
			if option == value {
				return true
			}
		}
		return false
	})
	return v
}

// parseFilter 没有cutoff参数时使用默认值(全部交通状况)
// 提交过表单(带cutoff)但没有勾选任何交通状况时，结果为空
func parseFilter(v *validator.Validate, dcfg *config.DataConfig, q url.Values) (processor.Filter, error) {
	query := filterQuery{
		Cutoff:  dcfg.DefaultCutoff.Time().Format(dateLayout),
		Traffic: dcfg.GetTrafficOptions(),
	}
	if q.Has("cutoff") {
		query.Cutoff = strings.TrimSpace(q.Get("cutoff"))
		query.Traffic = q["traffic"]
	}

	if err := v.Struct(query); err != nil {
		return processor.Filter{}, fmt.Errorf("%w: %s", errInvalidFilter, describe(err))
	}

	cutoff, err := time.Parse(dateLayout, query.Cutoff)
	if err != nil {
		return processor.Filter{}, fmt.Errorf("%w: %v", errInvalidFilter, err)
	}
	return processor.Filter{Cutoff: cutoff, Traffic: query.Traffic}, nil
}

// encodeFilter 图表链接沿用页面的筛选条件
func encodeFilter(f processor.Filter) string {
	q := url.Values{}
	q.Set("cutoff", f.Cutoff.Format(dateLayout))
	for _, t := range f.Traffic {
		q.Add("traffic", t)
	}
	return q.Encode()
}

// describe 把校验错误转成一行说明
func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s=%q fails %s", strings.ToLower(fe.Field()), fe.Value(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
