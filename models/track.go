package models

// BBox - 픽셀 좌표 바운딩 박스 (X1<X2, Y1<Y2)
type BBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Center returns the box centre using integer division.
func (b BBox) Center() Cell {
	return Cell{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// Valid reports whether the corners are ordered.
func (b BBox) Valid() bool {
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

// Detection - 검출기 출력 (프레임마다 새로 생성, 보관하지 않음)
type Detection struct {
	BBox       BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"` // 0~1
	ClassID    int     `json:"class_id"`
	ClassName  string  `json:"class_name,omitempty"`
}

// Track - 트래커가 프레임 간 동일 ID를 부여한 객체
type Track struct {
	ID         int     `json:"id"` // 양의 정수, 트래커가 유지
	BBox       BBox    `json:"bbox"`
	ClassID    int     `json:"class_id"`
	ClassName  string  `json:"class_name,omitempty"`
	Confidence float64 `json:"confidence"`
	Confirmed  bool    `json:"confirmed"`
}

// ConfirmedTracks drops tracks the tracker has not confirmed yet.
func ConfirmedTracks(tracks []Track) []Track {
	out := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if t.Confirmed {
			out = append(out, t)
		}
	}
	return out
}

// FindTrack returns the track with the given id, if present.
func FindTrack(tracks []Track, id int) (*Track, bool) {
	for i := range tracks {
		if tracks[i].ID == id {
			t := tracks[i]
			return &t, true
		}
	}
	return nil, false
}
