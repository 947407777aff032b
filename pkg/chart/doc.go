// Package chart provides the public API for embedding go-chart. A chart
// is declared in Lua, reads its data from workbooks or inline rows, and
// lays itself out again whenever the data, the axes or the window change.
//
// # Basic Usage
//
// The simplest way to use chart is to create an instance from a declaration file:
//
//	c, err := chart.New("/path/to/sales.lua", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Stop()
//
//	if err := c.Start(); err != nil {
//		log.Fatal(err)
//	}
//
// # Declaration Sources
//
// Chart supports three declaration sources:
//
//   - Disk file: Use [New] to load from a filesystem path
//   - Embedded FS: Use [NewFromFS] to load from an [io/fs.FS]
//   - io.Reader: Use [NewFromReader] for dynamic declarations
//
// # Live Data
//
// Rows appended with [Chart.Append] are laid out incrementally: only the
// new points are positioned unless an axis range has to grow.
// [Chart.Replace] and changed workbook files force a full pass.
//
//	c.Append("sales", map[string]any{"month": "Jul", "revenue": 42.0})
//
// With [Options.WatchData] a saved workbook is re-read; sources whose
// file did not change keep their rows.
//
// # Error Handling
//
// Runtime errors are reported through [ErrorHandler] as
// [*CategorizedError] values and recorded by the [ErrorTracker]:
//
//	c.SetErrorHandler(func(err error) {
//		log.Printf("chart error: %v", err)
//	})
//
// The handler is called asynchronously; do not block in the handler.
//
// # Headless Mode
//
// Without a window the pipeline still runs, driven by posted work and the
// update interval:
//
//	c, _ := chart.New("/path/to/sales.lua", &chart.Options{
//		Headless: true,
//	})
//	c.Start()
package chart
