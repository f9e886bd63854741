package models

// GenerationRequest is the validated form of POST /generate.
type GenerationRequest struct {
	MemberID       int64   `form:"memberId"`
	ModelImagePath string  `form:"modelImagePath" validate:"required,max=2048"`
	ClothImagePath string  `form:"clothImagePath" validate:"required,max=2048"`
	ModelType      string  `form:"modelType" validate:"required,oneof=hd dc"`
	Category       int     `form:"category" validate:"gte=0,lte=2"`
	Scale          float64 `form:"scale" validate:"gt=0"`
	Sample         int     `form:"sample" validate:"gte=1"`

	// Only sent to the tool when extended arguments are enabled.
	Step int `form:"-" validate:"gte=1"`
	Seed int `form:"-"`
}

const DefaultModelType = "dc"

const DefaultScale = 2.0

// Garment categories understood by the try-on tool.
const (
	CategoryUpperBody = 0
	CategoryLowerBody = 1
	CategoryDress     = 2
)

type GenerationResponse struct {
	Images []string `json:"images"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type HealthResponse struct {
	Health string `json:"health"`
}
