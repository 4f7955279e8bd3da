package models

import "time"

// Obstacle - 원형 장애물 (픽셀 좌표)
type Obstacle struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// SceneMap - 시뮬레이터 가상 장면
type SceneMap struct {
	ID        string     `json:"id"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	Obstacles []Obstacle `json:"obstacles"`
	CreatedAt time.Time  `json:"created_at"`
}
