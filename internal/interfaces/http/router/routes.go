package router

import (
	"github.com/estimate/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers are the HTTP handlers of the estimate service
type Handlers struct {
	Page     *handler.PageHandler
	Static   *handler.StaticHandler
	Sheet    *handler.SheetHandler
	Supplier *handler.SupplierHandler
	Product  *handler.ProductHandler
	Export   *handler.ExportHandler
	System   *handler.SystemHandler

	// ExportLimit guards the export routes when set
	ExportLimit gin.HandlerFunc
}

// RegisterRoutes wires the HTML pages, static assets and the JSON API
func RegisterRoutes(engine *gin.Engine, h Handlers) {
	engine.GET("/health", h.System.Health)

	engine.GET("/", h.Page.Index)
	engine.GET("/sheet/table", h.Page.Table)
	engine.GET("/sheet/print", h.Page.Print)
	export := []gin.HandlerFunc{h.Export.Export}
	if h.ExportLimit != nil {
		export = append([]gin.HandlerFunc{h.ExportLimit}, export...)
	}
	engine.GET("/export.png", export...)

	engine.GET("/static/app.js", h.Static.Script)
	engine.GET("/static/sheet.css", h.Static.Stylesheet)

	sheetRoutes := NewDomainGroup("/sheet")
	sheetRoutes.GET("", h.Sheet.GetSheet)
	sheetRoutes.PUT("/metadata", h.Sheet.UpdateMetadata)
	sheetRoutes.POST("/export", export...)

	itemRoutes := sheetRoutes.Group("/items")
	itemRoutes.POST("", h.Sheet.AddItem)
	itemRoutes.POST("/apply-product", h.Sheet.ApplyProduct)
	itemRoutes.PATCH("/:index", h.Sheet.UpdateItem)
	itemRoutes.DELETE("/:index", h.Sheet.DeleteItem)

	supplierRoutes := NewDomainGroup("/supplier")
	supplierRoutes.GET("", h.Supplier.GetSupplier)
	supplierRoutes.PUT("", h.Supplier.SaveSupplier)
	supplierRoutes.DELETE("/seal", h.Supplier.RemoveSeal)
	supplierRoutes.POST("/seal/preview", h.Supplier.PreviewSeal)

	productRoutes := NewDomainGroup("/products")
	productRoutes.GET("", h.Product.ListProducts)
	productRoutes.POST("", h.Product.AddProduct)
	productRoutes.DELETE("/*name", h.Product.RemoveProduct)

	systemRoutes := NewDomainGroup("/system")
	systemRoutes.GET("/info", h.System.GetSystemInfo)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(sheetRoutes).
		Register(supplierRoutes).
		Register(productRoutes).
		Register(systemRoutes)
	r.Setup()

	engine.GET("/api/v1/ping", h.System.Ping)
}
