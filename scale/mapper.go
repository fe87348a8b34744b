package scale

// Point is a 2D coordinate, either in data units or in chart pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Mapper converts data coordinates into a width×height viewport whose
// origin is the top-left corner (Y grows downwards).
type Mapper struct {
	X      Domain
	Y      Domain
	Width  float64
	Height float64
}

// NewMapper 以给定的 X/Y 域和视口尺寸构建线性映射。
func NewMapper(x, y Domain, width, height float64) Mapper {
	return Mapper{X: x, Y: y, Width: width, Height: height}
}

// MapX maps a value of the X domain to [0, Width].
func (m Mapper) MapX(t float64) float64 {
	return (t - m.X.Min) / m.X.Span() * m.Width
}

// MapY maps a value of the Y domain to [Height, 0].
func (m Mapper) MapY(v float64) float64 {
	return m.Height - (v-m.Y.Min)/m.Y.Span()*m.Height
}

// MapPoint maps both coordinates of p.
func (m Mapper) MapPoint(p Point) Point {
	return Point{X: m.MapX(p.X), Y: m.MapY(p.Y)}
}
