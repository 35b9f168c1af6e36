package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/estimate/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator configures the validator with custom tags
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// Use JSON tag names for field names in errors
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
	}
}

// fieldLabels are the names the sheet shows for request fields
var fieldLabels = map[string]string{
	"name":      "품명",
	"price":     "단가",
	"field":     "항목",
	"value":     "값",
	"index":     "행 번호",
	"row_index": "행 번호",
}

var dateLayoutNames = strings.NewReplacer("2006", "YYYY", "01", "MM", "02", "DD")

func fieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: getValidationMessage(e),
			})
		}
	}

	return dto.NewValidationErrorResponse("입력값을 확인해 주세요.", requestID, details)
}

// HandleValidationError writes a 400 response for a failed bind. Bodies that
// are not valid JSON are reported as ERR_INVALID_JSON.
func HandleValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInvalidJSON, "요청 형식이 올바르지 않습니다.", GetRequestID(c)))
		return
	}
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

func getValidationMessage(e validator.FieldError) string {
	label := fieldLabel(e.Field())
	unit := ""
	if e.Type().Kind() == reflect.String {
		unit = "자"
	}

	switch e.Tag() {
	case "required":
		return label + "을(를) 입력해 주세요."
	case "min":
		return label + "은(는) " + e.Param() + unit + " 이상이어야 합니다."
	case "max":
		return label + "은(는) " + e.Param() + unit + " 이하여야 합니다."
	case "oneof":
		return label + "은(는) 다음 중 하나여야 합니다: " + strings.Join(strings.Fields(e.Param()), ", ")
	case "datetime":
		return label + "은(는) " + dateLayoutNames.Replace(e.Param()) + " 형식이어야 합니다."
	default:
		return label + " 값이 올바르지 않습니다."
	}
}
