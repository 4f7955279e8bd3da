package services

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"skylock-backend/models"
)

// ErrUndecodableImage is returned when the payload is not a readable image.
var ErrUndecodableImage = errors.New("depth image could not be decoded")

// DecodeDepthImage - 그레이스케일 깊이 이미지(PNG 등)를 0~1 DepthMap으로 변환
//
// 8-bit and 16-bit single-channel images are accepted; colour images are
// converted to gray first. The result is min/max normalised.
func DecodeDepthImage(buf []byte) (models.DepthMap, error) {
	if len(buf) == 0 {
		return models.DepthMap{}, fmt.Errorf("%w: empty payload", ErrUndecodableImage)
	}

	img, err := gocv.IMDecode(buf, gocv.IMReadAnyDepth|gocv.IMReadGrayScale)
	if err != nil {
		return models.DepthMap{}, fmt.Errorf("%w: %v", ErrUndecodableImage, err)
	}
	defer img.Close()
	if img.Empty() {
		return models.DepthMap{}, fmt.Errorf("%w: empty image", ErrUndecodableImage)
	}

	f32 := gocv.NewMat()
	defer f32.Close()
	img.ConvertTo(&f32, gocv.MatTypeCV32F)

	data, err := f32.DataPtrFloat32()
	if err != nil {
		return models.DepthMap{}, fmt.Errorf("%w: %v", ErrUndecodableImage, err)
	}

	raw := models.NewDepthMap(f32.Cols(), f32.Rows())
	for i, v := range data {
		raw.Values[i] = float64(v)
	}
	return NormalizeDepth(raw)
}

// EncodeDepthImage renders a [0,1] depth map as an 8-bit grayscale PNG.
// Values outside the range are clamped.
func EncodeDepthImage(depth models.DepthMap) ([]byte, error) {
	if err := depth.Validate(); err != nil {
		return nil, err
	}

	pixels := make([]byte, len(depth.Values))
	for i, v := range depth.Values {
		pixels[i] = byte(min(max(v, 0), 1)*255 + 0.5)
	}

	img, err := gocv.NewMatFromBytes(depth.Height, depth.Width, gocv.MatTypeCV8U, pixels)
	if err != nil {
		return nil, fmt.Errorf("깊이 이미지 생성 실패: %w", err)
	}
	defer img.Close()

	encoded, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("깊이 이미지 인코딩 실패: %w", err)
	}
	defer encoded.Close()

	out := make([]byte, encoded.Len())
	copy(out, encoded.GetBytes())
	return out, nil
}
