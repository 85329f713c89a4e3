// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"
)

// RegisterRoutes registers the /yardcop endpoints on rg.
//
// Endpoints:
//
//	POST /v1/yardcop/lint   - Lint one source file
//	GET  /v1/yardcop/cops   - List cops with their effective settings
//	GET  /v1/yardcop/health - Health check
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	yardcop := rg.Group("/yardcop")
	{
		yardcop.POST("/lint", h.HandleLint)
		yardcop.GET("/cops", h.HandleCops)
		yardcop.GET("/health", h.HandleHealth)
	}
}

// NewRouter builds the engine: recovery, tracing, metrics and the rate
// limiter in front of the /v1 routes, plus GET /metrics.
//
// The limiter applies to /v1 only so scrapes are never throttled.
func NewRouter(h *Handlers, serviceName string, limiter *rate.Limiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(Metrics())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.Use(RateLimit(limiter))
	RegisterRoutes(v1, h)
	return router
}
