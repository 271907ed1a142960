package models

// AxisGeometry is the pixel layout of the x-axis used to place overlay markers
type AxisGeometry struct {
	LeftEdge     float64 `json:"leftEdge"`
	TickInterval float64 `json:"tickInterval"`
	TopOffset    float64 `json:"topOffset"`
}

// PositionAt returns the pixel x of label index i
func (g AxisGeometry) PositionAt(i int) float64 {
	return g.LeftEdge + float64(i)*g.TickInterval
}

// HoverSelection is the transient pointer state of a chart panel
type HoverSelection struct {
	PixelX     float64 `json:"pixelX"`     // -1 until the pointer resolves to an index
	LabelIndex int     `json:"labelIndex"` // -1 when nothing is selected
	DayLabel   string  `json:"dayLabel"`
	Enabled    bool    `json:"enabled"`
	PanelOpen  bool    `json:"panelOpen"`
}

// NoHover is the reset state
var NoHover = HoverSelection{PixelX: -1, LabelIndex: -1}

// PointRef addresses one rendered point
type PointRef struct {
	DatasetIndex int `json:"datasetIndex"`
	Index        int `json:"index"`
}

// PointClick is handed to click callbacks
type PointClick struct {
	Point   PointRef `json:"point"`
	Dataset Dataset  `json:"dataset"`
	Index   int      `json:"index"`
	Label   string   `json:"label,omitempty"`
	Day     string   `json:"day,omitempty"`
	Value   *float64 `json:"value,omitempty"`
}
