package main

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// 通知正在运行的看板重新打开日志并重新加载数据
// 用法: go run . -pid dashboard.pid
func main() {
	pidFile := flag.String("pid", "dashboard.pid", "看板进程的pid文件")
	flag.Parse()

	data, err := os.ReadFile(*pidFile)
	if err != nil {
		log.Fatal("Failed to read pid file:", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		log.Fatal("Invalid pid file:", err)
	}

	// 向看板进程发送 SIGHUP
	if err := syscall.Kill(pid, syscall.SIGHUP); err != nil {
		log.Fatal("Failed to send SIGHUP:", err)
	}
	log.Printf("SIGHUP sent to %d", pid)
}
