package main

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handlers "bizpulse/internal/transport/http"
)

func TestFrontendEmbedding(t *testing.T) {
	frontend := frontendFS()
	require.NotNil(t, frontend)

	tests := []struct {
		path     string
		contains []string
	}{
		{path: handlers.IndexPage, contains: []string{`id="kpi-cards"`, "/static/dashboard.js", "chart.js"}},
		{path: "static/dashboard.js", contains: []string{"/api/simulate", "/ws", "simulation:result"}},
		{path: "static/dashboard.css", contains: []string{".cards"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			data, err := fs.ReadFile(frontend, tt.path)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.True(t, strings.Contains(string(data), want), "%s should contain %q", tt.path, want)
			}
		})
	}
}

func TestFrontendCanvasesMatchCharts(t *testing.T) {
	page, err := fs.ReadFile(frontendFS(), handlers.IndexPage)
	require.NoError(t, err)

	for _, id := range []string{"kpi-bar", "ratio-bar", "forecast-line"} {
		assert.Contains(t, string(page), `id="chart-`+id+`"`)
	}
}
