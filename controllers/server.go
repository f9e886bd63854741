package controllers

import (
	"errors"
	"net/http"

	"ootdapi/models"
	"ootdapi/services"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}

// ServerOptions carries the request defaults that are not part of the form.
type ServerOptions struct {
	DefaultSample int
	DefaultStep   int
	DefaultSeed   int
	// BodyLimit is passed to echo's BodyLimit middleware, e.g. "32M".
	BodyLimit string
}

func SetupServer(generator services.GeneratorProvider, opts ServerOptions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = detailErrorHandler

	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.HealthResponse{Health: "Good"})
	})

	generateController := GenerateController{
		Generator:     generator,
		DefaultSample: opts.DefaultSample,
		DefaultStep:   opts.DefaultStep,
		DefaultSeed:   opts.DefaultSeed,
	}
	generateController.GenerateRoutes(e.Group(""))

	return e
}

// detailErrorHandler renders every framework error as {"detail": ...}.
func detailErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	detail := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			detail = msg
		} else {
			detail = http.StatusText(code)
		}
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, models.ErrorResponse{Detail: detail})
	}
	if err != nil {
		c.Logger().Error(err)
	}
}
