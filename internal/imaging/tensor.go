package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// Prepare resizes a frame to the square model input resolution with
// bilinear filtering. Prepared frames are what the dataset stores; they
// convert to tensors at batch assembly.
func Prepare(img image.Image, size int) *image.NRGBA {
	return imaging.Resize(img, size, size, imaging.Linear)
}

// ToTensor converts an image to a planar RGB tensor: three contiguous
// planes of size*size values in [0,1], red plane first. The image is
// resized first when it is not already size x size.
func ToTensor(img image.Image, size int) []float64 {
	n, ok := img.(*image.NRGBA)
	if !ok || n.Bounds().Dx() != size || n.Bounds().Dy() != size {
		n = Prepare(img, size)
	}
	return TensorFromNRGBA(n)
}

// TensorFromNRGBA converts a prepared square frame without resizing.
func TensorFromNRGBA(img *image.NRGBA) []float64 {
	b := img.Bounds()
	t := make([]float64, 3*b.Dx()*b.Dy())
	TensorInto(t, img)
	return t
}

// TensorInto writes the planar tensor of img into dst, which must hold
// 3 * width * height values. Batch assembly reuses one buffer this way.
func TensorInto(dst []float64, img *image.NRGBA) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := w * h
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			i := y*w + x
			dst[i] = float64(img.Pix[o]) / 255
			dst[plane+i] = float64(img.Pix[o+1]) / 255
			dst[2*plane+i] = float64(img.Pix[o+2]) / 255
		}
	}
}

// TensorToImage renders a planar RGB tensor back into an image, clamping
// values to [0,1]. The preview tool uses this to show exactly what the
// model sees after normalization.
func TensorToImage(t []float64, size int) *image.NRGBA {
	plane := size * size
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := y*size + x
			o := y*img.Stride + x*4
			img.Pix[o] = clampByte(t[i])
			img.Pix[o+1] = clampByte(t[plane+i])
			img.Pix[o+2] = clampByte(t[2*plane+i])
			img.Pix[o+3] = 255
		}
	}
	return img
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
