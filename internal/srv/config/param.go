package config

import (
	_ "embed"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

type ServerParam struct {
	TickFrequency int64       `yaml:"tick_frequency"`
	MatrixParam   MatrixParam `yaml:"matrix"`
	LcdParam      LcdParam    `yaml:"lcd"`
	GraphParam    GraphParam  `yaml:"graph"`
	FireParam     FireParam   `yaml:"fire"`
}

type MatrixParam struct {
	CsPin          string `yaml:"cs_pin"`
	WrPin          string `yaml:"wr_pin"`
	DataPin        string `yaml:"data_pin"`
	Brightness     int64  `yaml:"brightness"`
	ScrollInterval int64  `yaml:"scroll_interval_ms"`
}

type LcdParam struct {
	SpiPort  string `yaml:"spi_port"`
	SpiSpeed int64  `yaml:"spi_speed_hz"`
	CsPin    string `yaml:"cs_pin"`
	DcPin    string `yaml:"dc_pin"`
	RstPin   string `yaml:"rst_pin"`
}

type GraphParam struct {
	SampleInterval int64   `yaml:"sample_interval_ms"`
	SmoothingAlpha float64 `yaml:"smoothing_alpha"`
	ResponseCurve  string  `yaml:"response_curve"`
}

type FireParam struct {
	FrameInterval int64 `yaml:"frame_interval_ms"`
	MaxCooling    int64 `yaml:"max_cooling"`
}
