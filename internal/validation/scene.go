// Package validation checks scene create requests. Every rule runs and every
// failure is reported, in field order, as a FieldError.
package validation

import (
	"encoding/base64"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/Vasu1712/dronepilot-backend/internal/models"
	"github.com/go-playground/validator/v10"
)

// MaxTextureBytes caps the decoded size of a scene texture.
const MaxTextureBytes = 5 * 1024 * 1024

var (
	dataURIPrefix = regexp.MustCompile(`^data:image/(png|jpeg|jpg|gif);base64,`)
	base64Payload = regexp.MustCompile(`^[A-Za-z0-9+/]+=*$`)
	numericText   = regexp.MustCompile(`^[+-]?([0-9]*[.])?[0-9]+$`)
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SceneInput is the create body as sent. Fields are untyped so wrong JSON
// types surface as field errors instead of decode failures.
//
// On interface fields required and omitempty only look at nil, so an empty
// string needs nonempty and optional_base64image.
type SceneInput struct {
	UserID           any `json:"userId" validate:"required,nonempty,scalar"`
	Name             any `json:"name" validate:"omitempty,text"`
	GroundWidth      any `json:"groundWidth" validate:"numeric_value"`
	GroundDepth      any `json:"groundDepth" validate:"numeric_value"`
	Texture          any `json:"texture" validate:"required,nonempty,base64image"`
	ThumbnailTexture any `json:"thumbnailTexture" validate:"omitempty,optional_base64image"`
}

// messages is keyed by "<json field>.<failed tag>"; "<json field>" is the fallback.
var messages = map[string]string{
	"userId":           "用户ID不能为空",
	"name":             "场景名称必须是字符串",
	"groundWidth":      "地面宽度必须是数字",
	"groundDepth":      "地面深度必须是数字",
	"texture.required": "纹理不能为空",
	"texture.nonempty": "纹理不能为空",
	"texture":          "纹理必须是有效的base64编码图片",
	"thumbnailTexture": "缩略图必须是有效的base64编码图片",
}

// Validator runs the scene rules.
type Validator struct {
	v *validator.Validate
}

// New registers the custom rules.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("nonempty", isNonEmpty)
	_ = v.RegisterValidation("scalar", isScalar)
	_ = v.RegisterValidation("text", isText)
	_ = v.RegisterValidation("numeric_value", isNumericValue)
	_ = v.RegisterValidation("base64image", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		return f.Kind() == reflect.String && IsBase64Image(f.String())
	})
	_ = v.RegisterValidation("optional_base64image", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		return f.Kind() == reflect.String && (f.String() == "" || IsBase64Image(f.String()))
	})
	return &Validator{v: v}
}

// ValidateScene returns nil when in is acceptable.
func (v *Validator) ValidateScene(in *SceneInput) []FieldError {
	err := v.v.Struct(in)
	if err == nil {
		return nil
	}

	var out []FieldError
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "body", Message: err.Error()}}
	}
	for _, fe := range verrs {
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = messages[fe.Field()]
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

// ToScene converts a validated input.
func (in *SceneInput) ToScene() *models.Scene {
	return &models.Scene{
		UserID:           scalarString(in.UserID),
		Name:             scalarString(in.Name),
		GroundWidth:      toFloat(in.GroundWidth),
		GroundDepth:      toFloat(in.GroundDepth),
		Texture:          scalarString(in.Texture),
		ThumbnailTexture: scalarString(in.ThumbnailTexture),
	}
}

// IsBase64Image reports whether s is a png, jpeg or gif data URI with a
// base64 payload.
func IsBase64Image(s string) bool {
	loc := dataURIPrefix.FindStringIndex(s)
	if loc == nil {
		return false
	}
	return base64Payload.MatchString(s[loc[1]:])
}

// DecodedSize is the byte length of a data URI's base64 payload once decoded.
// It does not allocate the decoded bytes.
func DecodedSize(dataURI string) int {
	payload := dataURI
	if i := strings.IndexByte(dataURI, ','); i >= 0 {
		payload = dataURI[i+1:]
	}
	payload = strings.TrimRight(payload, "=")
	return base64.RawStdEncoding.DecodedLen(len(payload))
}

// isNonEmpty accepts a non-empty string or any number.
func isNonEmpty(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.String:
		return f.Len() > 0
	case reflect.Float64:
		return true
	default:
		return false
	}
}

func isScalar(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.String, reflect.Float64:
		return true
	default:
		return false
	}
}

func isText(fl validator.FieldLevel) bool {
	return fl.Field().Kind() == reflect.String
}

func isNumericValue(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float64:
		return !math.IsNaN(f.Float()) && !math.IsInf(f.Float(), 0)
	case reflect.String:
		return numericText.MatchString(f.String())
	default:
		return false
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	default:
		return 0
	}
}
