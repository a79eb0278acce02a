package main

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
)

// LogMemStats appends runtime memory stats to log.MemStats.txt every second
func LogMemStats() {
	var m runtime.MemStats
	var logFile = osUtil.Create("log.MemStats.txt")
	defer simpleUtil.DeferClose(logFile)
	logger := slog.New(slog.NewTextHandler(logFile, nil))
	for {
		runtime.ReadMemStats(&m)
		logger.Info(
			"memStats",
			"Alloc", m.Alloc,
			"TotalAlloc", m.TotalAlloc,
			"Sys", m.Sys,
			"HeapAlloc", m.HeapAlloc,
			"HeapInuse", m.HeapInuse,
			"HeapObjects", m.HeapObjects,
			"NumGC", m.NumGC,
		)
		time.Sleep(1 * time.Second)
	}
}
