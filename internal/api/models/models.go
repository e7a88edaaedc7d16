package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"v0.3.1" doc:"Release version"`
	GitCommit string `json:"git_commit" example:"4f2a9c1" doc:"Source revision"`
	BuildDate string `json:"build_date" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go toolchain"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"GOOS/GOARCH"`
}

type VersionResponse struct {
	Body VersionData
}

// Playback status models
type StatusData struct {
	Mode       string `json:"mode" example:"overlay:vita2000" doc:"Display mode: plain, upscaled or overlay:<id>"`
	Camera     int    `json:"camera" example:"0" doc:"Open camera index, -1 when none"`
	Mic        int    `json:"mic" example:"0" doc:"Active mic index, -1 when none"`
	Resolution string `json:"resolution" example:"896x504" doc:"Resolution the driver applied"`
	LastError  string `json:"last_error,omitempty" doc:"Most recent device or compose failure"`
}

type StatusResponse struct {
	Body StatusData
}

// Device models
type CameraInfo struct {
	Index   int          `json:"index" example:"0" doc:"Position among capture nodes, in /dev/videoN order"`
	Path    string       `json:"path" example:"/dev/video0" doc:"Device node"`
	Name    string       `json:"name" example:"USB Video" doc:"Driver card name"`
	ID      string       `json:"id,omitempty" doc:"Stable by-id name"`
	Type    string       `json:"type,omitempty" enum:"webcam,hdmi,unknown" doc:"Device type"`
	Ready   bool         `json:"ready" doc:"Webcams are always ready, HDMI cards only with a locked signal"`
	Signal  *SignalInfo  `json:"signal,omitempty" doc:"HDMI input state"`
	Formats []FormatInfo `json:"formats,omitempty" doc:"Pixel formats with their frame sizes"`
	Error   string       `json:"error,omitempty" doc:"Why the node could not be queried"`
}

type SignalInfo struct {
	State  string  `json:"state" example:"locked" doc:"no_link, no_signal, unstable, locked, out_of_range or not_supported"`
	Width  uint32  `json:"width,omitempty" example:"960"`
	Height uint32  `json:"height,omitempty" example:"544"`
	FPS    float64 `json:"fps,omitempty" example:"59.94"`
}

type FormatInfo struct {
	FourCC   string          `json:"fourcc" example:"YUYV"`
	Name     string          `json:"name" example:"YUYV 4:2:2"`
	Emulated bool            `json:"emulated,omitempty" doc:"Converted in libv4l rather than by the device"`
	Sizes    []FrameSizeInfo `json:"sizes"`
}

type FrameSizeInfo struct {
	Width  uint32    `json:"width" example:"960"`
	Height uint32    `json:"height" example:"544"`
	FPS    []float64 `json:"fps,omitempty" doc:"Frame rates offered at this size"`
}

type PCMInfo struct {
	Index  int    `json:"index" example:"0" doc:"Position among PCMs of the same direction"`
	Device string `json:"device" example:"hw:1,0" doc:"ALSA device"`
	Card   string `json:"card" doc:"Card id"`
	Name   string `json:"name" doc:"PCM name"`
}

type DevicesData struct {
	Cameras []CameraInfo `json:"cameras" doc:"Capture devices"`
	Mics    []PCMInfo    `json:"mics" doc:"Capture PCMs"`
	Outputs []PCMInfo    `json:"outputs" doc:"Playback PCMs"`
}

type DevicesResponse struct {
	Body DevicesData
}

// Intent models
type IntentData struct {
	Action  string `json:"action" enum:"select-camera,select-mic,toggle-upscale,toggle-overlay,cycle-resolution,toggle-fullscreen" doc:"Action to apply"`
	Index   int    `json:"index,omitempty" minimum:"0" example:"1" doc:"Device index for select-camera and select-mic"`
	Overlay string `json:"overlay,omitempty" example:"vita2000" doc:"Overlay id for toggle-overlay"`
	Step    int    `json:"step,omitempty" example:"1" doc:"Table step for cycle-resolution, defaults to 1"`
}

type IntentRequest struct {
	Body IntentData
}

type IntentAcceptedData struct {
	Intent string `json:"intent" example:"select-camera(1)" doc:"Queued intent"`
}

type IntentResponse struct {
	Body IntentAcceptedData
}
