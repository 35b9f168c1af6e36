// Package printing turns an estimate sheet view model into HTML and PNG.
//
// The package contains:
//   - Sheet, the render-ready projection of the estimate state
//   - TemplateEngine, which renders the interactive page, the table fragment
//     and the static capture page from embedded html/template files
//   - SheetRasterizer, implemented by ChromedpRasterizer (headless Chrome
//     screenshot) and CanvasRasterizer (pure Go drawing with gogpu/gg)
//
// Example usage:
//
//	engine, err := printing.NewTemplateEngine()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rasterizer, err := printing.NewCanvasRasterizer(&printing.CanvasConfig{Scale: 2})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := rasterizer.Rasterize(ctx, sheet.CaptureCopy())
package printing
