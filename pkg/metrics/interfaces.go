package metrics

//go:generate mockgen -destination=mock_buffer.go -package=metrics github.com/CNES/opensand-sub000/pkg/metrics PointStore

// PointStore keeps the most recent values of one probe.
type PointStore interface {
	Add(p Point)
	Points() []Point
	Last() (Point, bool)
}
