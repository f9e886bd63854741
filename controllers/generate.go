package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ootdapi/models"
	"ootdapi/services"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

type GenerateController struct {
	Generator     services.GeneratorProvider
	DefaultSample int
	DefaultStep   int
	DefaultSeed   int
}

func (controller *GenerateController) GenerateRoutes(g *echo.Group) {
	g.POST("/generate", controller.Generate)
}

// bindGenerationRequest reads the form fields and applies defaults for the
// optional ones.
func (controller *GenerateController) bindGenerationRequest(c echo.Context) (models.GenerationRequest, error) {
	req := models.GenerationRequest{
		ModelType: models.DefaultModelType,
		Scale:     models.DefaultScale,
		Sample:    controller.DefaultSample,
		Step:      controller.DefaultStep,
		Seed:      controller.DefaultSeed,
	}
	err := echo.FormFieldBinder(c).
		MustInt64("memberId", &req.MemberID).
		MustString("modelImagePath", &req.ModelImagePath).
		MustString("clothImagePath", &req.ClothImagePath).
		String("modelType", &req.ModelType).
		MustInt("category", &req.Category).
		Float64("scale", &req.Scale).
		Int("sample", &req.Sample).
		BindError()
	if err != nil {
		var be *echo.BindingError
		if errors.As(err, &be) {
			return req, echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("%s: %v", be.Field, be.Message))
		}
		return req, echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	req.ModelImagePath = strings.TrimSpace(req.ModelImagePath)
	req.ClothImagePath = strings.TrimSpace(req.ClothImagePath)
	if strings.TrimSpace(req.ModelType) == "" {
		req.ModelType = models.DefaultModelType
	}
	return req, nil
}

func (controller *GenerateController) Generate(c echo.Context) error {
	req, err := controller.bindGenerationRequest(c)
	if err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	result, err := controller.Generator.Generate(c.Request().Context(), req)
	if err != nil {
		captureGenerationFailure(c, req, err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: err.Error()})
	}
	return c.JSON(http.StatusOK, models.GenerationResponse{Images: result.Images})
}

func captureGenerationFailure(c echo.Context, req models.GenerationRequest, err error) {
	hub := sentryecho.GetHubFromContext(c)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("failure_type", services.FailureType(err))
		scope.SetTag("member_id", fmt.Sprint(req.MemberID))
		scope.SetExtra("model_image", req.ModelImagePath)
		scope.SetExtra("cloth_image", req.ClothImagePath)
		scope.SetExtra("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
		hub.CaptureException(err)
	})
}
