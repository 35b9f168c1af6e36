package printing

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/estimate/backend/internal/infrastructure/imaging"
	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/goregular"
)

// Sheet geometry in CSS pixels; everything is multiplied by the scale.
const (
	sheetWidth     = 794.0
	sheetPadding   = 40.0
	titleSize      = 28.0
	bodySize       = 13.0
	totalSize      = 16.0
	infoRowHeight  = 28.0
	infoLabelWidth = 64.0
	infoTableWidth = 300.0
	itemRowHeight  = 30.0
	totalBoxHeight = 40.0
	sealSize       = 56.0
	lineSpacing    = 1.5
	cellPadding    = 6.0
)

// itemColumns are the widths of No, name, qty, price, amount and the
// blank action column. The name column takes what is left.
var itemColumns = [...]float64{44, 0, 70, 120, 120, 40}

// hangulFontCandidates are common system locations of a font with Hangul glyphs
var hangulFontCandidates = []string{
	"/usr/share/fonts/truetype/nanum/NanumGothic.ttf",
	"/usr/share/fonts/truetype/noto/NotoSansKR-Regular.ttf",
	"/usr/share/fonts/opentype/noto/NotoSansKR-Regular.otf",
	"/usr/share/fonts/noto-cjk/NotoSansKR-Regular.otf",
	"/Library/Fonts/NanumGothic.ttf",
	`C:\Windows\Fonts\malgun.ttf`,
}

// CanvasConfig contains configuration for the canvas rasterizer
type CanvasConfig struct {
	// Scale is the pixel ratio of the output image
	Scale float64
	// FontPath is a TTF/OTF file used before the bundled Latin font.
	// When empty, well-known Hangul font locations are tried.
	FontPath string
	// Logger for diagnostics
	Logger *zap.Logger
}

// CanvasRasterizer draws the sheet with gogpu/gg. It needs no browser.
type CanvasRasterizer struct {
	mu      sync.Mutex
	scale   float64
	logger  *zap.Logger
	sources []*text.FontSource
}

// NewCanvasRasterizer loads the fonts and returns a rasterizer
func NewCanvasRasterizer(config *CanvasConfig) (*CanvasRasterizer, error) {
	if config == nil {
		config = &CanvasConfig{}
	}
	scale := config.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &CanvasRasterizer{scale: scale, logger: logger}

	primary, err := loadPrimaryFont(config.FontPath, logger)
	if err != nil {
		return nil, err
	}
	if primary != nil {
		r.sources = append(r.sources, primary)
	}

	latin, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, NewRenderError(ErrCodeFontUnavailable, "failed to load bundled font", err)
	}
	r.sources = append(r.sources, latin)

	return r, nil
}

func loadPrimaryFont(path string, logger *zap.Logger) (*text.FontSource, error) {
	if path != "" {
		source, err := text.NewFontSourceFromFile(path)
		if err != nil {
			return nil, NewRenderError(ErrCodeFontUnavailable, "failed to load font "+path, err)
		}
		return source, nil
	}

	for _, candidate := range hangulFontCandidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		source, err := text.NewFontSourceFromFile(candidate)
		if err != nil {
			logger.Debug("skipping unreadable font", zap.String("path", candidate), zap.Error(err))
			continue
		}
		logger.Info("canvas font loaded", zap.String("path", candidate))
		return source, nil
	}

	logger.Warn("no Hangul font found; set export.font_path to render Korean text")
	return nil, nil
}

// face builds a face at size CSS pixels, falling back across the loaded fonts
func (r *CanvasRasterizer) face(size float64) (text.Face, error) {
	faces := make([]text.Face, 0, len(r.sources))
	for _, source := range r.sources {
		faces = append(faces, source.Face(size*r.scale))
	}
	if len(faces) == 1 {
		return faces[0], nil
	}
	return text.NewMultiFace(faces...)
}

// Rasterize draws the static form of the sheet
func (r *CanvasRasterizer) Rasterize(ctx context.Context, sheet *Sheet) (*CaptureResult, error) {
	if sheet == nil {
		return nil, NewRenderError(ErrCodeInvalidSheet, "sheet is nil", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeRenderTimeout, "sheet capture cancelled", err)
	}
	startTime := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	fonts, err := r.loadFaces()
	if err != nil {
		return nil, NewRenderError(ErrCodeFontUnavailable, "failed to build font faces", err)
	}

	d := &sheetDrawer{r: r, fonts: fonts, sheet: sheet.CaptureCopy()}
	remarks := d.wrapRemarks()
	height := d.measureHeight(len(remarks))

	dc := gg.NewContext(int(sheetWidth*r.scale), int(height*r.scale))
	defer dc.Close()
	d.dc = dc

	if err := d.draw(ctx, remarks); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, NewRenderError(ErrCodeEncodeFailed, "failed to encode PNG", err)
	}

	duration := time.Since(startTime)
	r.logger.Info("sheet captured",
		zap.String("engine", "canvas"),
		zap.Int("bytes", buf.Len()),
		zap.Int("width", dc.Width()),
		zap.Int("height", dc.Height()),
		zap.Duration("duration", duration))

	return &CaptureResult{
		PNG:            buf.Bytes(),
		Width:          dc.Width(),
		Height:         dc.Height(),
		RenderDuration: duration,
	}, nil
}

type canvasFonts struct {
	title, body, total text.Face
}

func (r *CanvasRasterizer) loadFaces() (*canvasFonts, error) {
	title, err := r.face(titleSize)
	if err != nil {
		return nil, err
	}
	body, err := r.face(bodySize)
	if err != nil {
		return nil, err
	}
	total, err := r.face(totalSize)
	if err != nil {
		return nil, err
	}
	return &canvasFonts{title: title, body: body, total: total}, nil
}

// Close releases the loaded fonts
func (r *CanvasRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, source := range r.sources {
		errs = append(errs, source.Close())
	}
	r.sources = nil
	return errors.Join(errs...)
}

// sheetDrawer holds the state of one rasterization
type sheetDrawer struct {
	r     *CanvasRasterizer
	dc    *gg.Context
	fonts *canvasFonts
	sheet *Sheet
}

func (d *sheetDrawer) px(v float64) float64 {
	return v * d.r.scale
}

func (d *sheetDrawer) contentWidth() float64 {
	return sheetWidth - 2*sheetPadding
}

func (d *sheetDrawer) headerHeight() float64 {
	return 3 * infoRowHeight
}

func (d *sheetDrawer) measureHeight(remarkLines int) float64 {
	lines := max(remarkLines, 3)
	return sheetPadding + titleSize*2 +
		d.headerHeight() + 24 +
		totalBoxHeight + 16 +
		itemRowHeight*float64(len(d.sheet.Rows)+1) + 24 +
		bodySize*2 + bodySize*lineSpacing*float64(lines) + 2*cellPadding +
		sheetPadding
}

// wrapRemarks splits the remarks into lines that fit the remarks box
func (d *sheetDrawer) wrapRemarks() []string {
	limit := d.px(d.contentWidth() - 2*cellPadding)
	var out []string
	for _, paragraph := range strings.Split(d.sheet.Remarks, "\n") {
		line := ""
		for _, r := range paragraph {
			next := line + string(r)
			if line != "" && d.fonts.body.Advance(next) > limit {
				out = append(out, line)
				line = string(r)
				continue
			}
			line = next
		}
		out = append(out, line)
	}
	return out
}

func (d *sheetDrawer) draw(ctx context.Context, remarks []string) error {
	dc := d.dc
	dc.SetRGB(1, 1, 1)
	dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
	if err := dc.Fill(); err != nil {
		return NewRenderError(ErrCodeRenderFailed, "failed to paint background", err)
	}

	y := sheetPadding
	dc.SetHexColor("#212529")
	dc.SetFont(d.fonts.title)
	dc.DrawStringAnchored(spaced(d.sheet.Title), d.px(sheetWidth/2), d.px(y+titleSize), 0.5, 0)
	y += titleSize * 2

	d.drawCustomer(sheetPadding, y)
	d.drawSupplier(sheetWidth-sheetPadding-infoTableWidth, y)
	y += d.headerHeight() + 24

	if err := ctx.Err(); err != nil {
		return NewRenderError(ErrCodeRenderTimeout, "sheet capture cancelled", err)
	}

	d.drawTotal(y)
	y += totalBoxHeight + 16

	y = d.drawItems(y) + 24
	d.drawRemarks(y, remarks)
	return nil
}

func (d *sheetDrawer) drawCustomer(x, y float64) {
	d.drawInfoRow(x, y, "발행일", d.sheet.IssueDate)
	d.drawInfoRow(x, y+infoRowHeight, "수신", d.sheet.CustomerName+" 귀하")
	d.dc.SetFont(d.fonts.body)
	d.dc.SetHexColor("#212529")
	d.dc.DrawString("아래와 같이 견적합니다.", d.px(x), d.px(y+infoRowHeight*2+bodySize+cellPadding*2))
}

func (d *sheetDrawer) drawSupplier(x, y float64) {
	s := d.sheet.Supplier
	d.drawInfoRow(x, y, "상호", s.CompanyName)
	d.drawInfoRow(x, y+infoRowHeight, "담당자", s.ContactPerson)
	d.drawInfoRow(x, y+infoRowHeight*2, "연락처", s.Phone)
	if s.HasSeal() {
		d.drawSeal(x+infoTableWidth-sealSize-4, y+infoRowHeight-12)
	}
}

func (d *sheetDrawer) drawInfoRow(x, y float64, label, value string) {
	dc := d.dc
	dc.SetHexColor("#f8f9fa")
	dc.DrawRectangle(d.px(x), d.px(y), d.px(infoLabelWidth), d.px(infoRowHeight))
	_ = dc.Fill()

	dc.SetHexColor("#ced4da")
	dc.SetLineWidth(d.px(1))
	dc.DrawRectangle(d.px(x), d.px(y), d.px(infoLabelWidth), d.px(infoRowHeight))
	_ = dc.Stroke()
	dc.DrawRectangle(d.px(x+infoLabelWidth), d.px(y), d.px(infoTableWidth-infoLabelWidth), d.px(infoRowHeight))
	_ = dc.Stroke()

	dc.SetHexColor("#212529")
	dc.SetFont(d.fonts.body)
	baseline := y + infoRowHeight/2 + bodySize/2 - 2
	dc.DrawString(label, d.px(x+cellPadding), d.px(baseline))
	dc.DrawString(value, d.px(x+infoLabelWidth+cellPadding), d.px(baseline))
}

// drawSeal draws the seal image; a seal that fails to decode is skipped
func (d *sheetDrawer) drawSeal(x, y float64) {
	img, err := imaging.DecodeDataURIImage(d.sheet.Supplier.SealImage)
	if err != nil {
		d.r.logger.Warn("seal image skipped", zap.Error(err))
		return
	}
	d.dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:         d.px(x),
		Y:         d.px(y),
		DstWidth:  d.px(sealSize),
		DstHeight: d.px(sealSize),
	})
}

func (d *sheetDrawer) drawTotal(y float64) {
	dc := d.dc
	dc.SetHexColor("#212529")
	dc.SetLineWidth(d.px(2))
	dc.DrawRectangle(d.px(sheetPadding), d.px(y), d.px(d.contentWidth()), d.px(totalBoxHeight))
	_ = dc.Stroke()

	dc.SetFont(d.fonts.total)
	baseline := d.px(y + totalBoxHeight/2 + totalSize/2 - 2)
	dc.DrawString("합계금액", d.px(sheetPadding+12), baseline)
	amount := "₩ " + d.sheet.GrandTotal
	w, _ := dc.MeasureString(amount)
	dc.DrawString(amount, d.px(sheetWidth-sheetPadding-12)-w, baseline)
}

// columnEdges returns the x offsets of the item table column borders
func (d *sheetDrawer) columnEdges() []float64 {
	fixed := 0.0
	for _, w := range itemColumns {
		fixed += w
	}
	edges := []float64{sheetPadding}
	x := sheetPadding
	for _, w := range itemColumns {
		if w == 0 {
			w = d.contentWidth() - fixed
		}
		x += w
		edges = append(edges, x)
	}
	return edges
}

// drawItems draws the header and one line per row and returns the bottom y
func (d *sheetDrawer) drawItems(y float64) float64 {
	dc := d.dc
	edges := d.columnEdges()
	rows := len(d.sheet.Rows) + 1
	bottom := y + itemRowHeight*float64(rows)

	dc.SetHexColor("#f8f9fa")
	dc.DrawRectangle(d.px(sheetPadding), d.px(y), d.px(d.contentWidth()), d.px(itemRowHeight))
	_ = dc.Fill()

	dc.SetHexColor("#ced4da")
	dc.SetLineWidth(d.px(1))
	for i := 0; i <= rows; i++ {
		ly := y + itemRowHeight*float64(i)
		dc.DrawLine(d.px(sheetPadding), d.px(ly), d.px(sheetWidth-sheetPadding), d.px(ly))
		_ = dc.Stroke()
	}
	for _, x := range edges {
		dc.DrawLine(d.px(x), d.px(y), d.px(x), d.px(bottom))
		_ = dc.Stroke()
	}

	dc.SetHexColor("#212529")
	dc.SetFont(d.fonts.body)
	headers := []string{"No.", "품명/규격", "수량", "단가", "금액"}
	for i, h := range headers {
		d.cellText(h, edges[i], edges[i+1], y, 0.5)
	}

	for i, row := range d.sheet.Rows {
		ry := y + itemRowHeight*float64(i+1)
		d.cellText(strconv.Itoa(row.Number), edges[0], edges[1], ry, 0.5)
		d.cellText(row.Name, edges[1], edges[2], ry, 0)
		d.cellText(row.Quantity, edges[2], edges[3], ry, 1)
		d.cellText(row.Price, edges[3], edges[4], ry, 1)
		d.cellText(row.Amount, edges[4], edges[5], ry, 1)
	}
	return bottom
}

// cellText draws s inside [left, right] aligned by align (0 left, 0.5 centre, 1 right)
func (d *sheetDrawer) cellText(s string, left, right, top, align float64) {
	if s == "" {
		return
	}
	var x float64
	switch align {
	case 0:
		x = left + cellPadding
	case 1:
		x = right - cellPadding
	default:
		x = (left + right) / 2
	}
	baseline := top + itemRowHeight/2 + bodySize/2 - 2
	w, _ := d.dc.MeasureString(s)
	d.dc.DrawString(s, d.px(x)-w*align, d.px(baseline))
}

func (d *sheetDrawer) drawRemarks(y float64, lines []string) {
	dc := d.dc
	dc.SetHexColor("#212529")
	dc.SetFont(d.fonts.body)
	dc.DrawString("비고", d.px(sheetPadding), d.px(y+bodySize))
	y += bodySize * 2

	boxHeight := bodySize*lineSpacing*float64(max(len(lines), 3)) + 2*cellPadding
	dc.SetHexColor("#ced4da")
	dc.SetLineWidth(d.px(1))
	dc.DrawRectangle(d.px(sheetPadding), d.px(y), d.px(d.contentWidth()), d.px(boxHeight))
	_ = dc.Stroke()

	dc.SetHexColor("#212529")
	for i, line := range lines {
		baseline := y + cellPadding + bodySize*lineSpacing*float64(i) + bodySize
		dc.DrawString(line, d.px(sheetPadding+cellPadding), d.px(baseline))
	}
}

// spaced separates the title glyphs the way the page letter-spacing does
func spaced(title string) string {
	if strings.ContainsRune(title, ' ') {
		return title
	}
	return strings.Join(strings.Split(title, ""), " ")
}

// Ensure CanvasRasterizer implements SheetRasterizer
var _ SheetRasterizer = (*CanvasRasterizer)(nil)
