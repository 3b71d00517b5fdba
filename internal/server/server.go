package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"spotify-dl-go/internal/api"
	"spotify-dl-go/internal/engine"
)

func Start(eng *engine.Engine, port string) {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "spotify-dl-go engine running")
	})

	e.GET("/stream/:trackID", func(c echo.Context) error {
		trackID := c.Param("trackID")
		quality := eng.Quality
		if q := api.Quality(c.QueryParam("quality")); q != "" {
			quality = q
		}

		// Set headers for streaming audio
		c.Response().Header().Set(echo.HeaderContentType, "audio/ogg")
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=\"%s.ogg\"", trackID))

		// Flush headers to client immediately
		c.Response().WriteHeader(http.StatusOK)

		// Note: Echo's Response() implements io.Writer
		_, err := eng.StreamTrack(c.Request().Context(), trackID, quality, c.Response().Writer)
		if err != nil {
			// Since we already sent 200 OK, we can't send error status code.
			// We can only log error.
			// In a real app we might want to check metadata first before sending 200.
			fmt.Printf("Stream error: %v\n", err)
			return nil
		}

		return nil
	})

	e.Logger.Fatal(e.Start(":" + port))
}
