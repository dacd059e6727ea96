// Package imaging handles the pixel side of the training pipeline: loading
// frames from disk, normalizing them to 8-bit NRGBA, resizing to the model
// input resolution, and converting between images and the planar float
// tensors the models consume. It also assembles the contact sheets the
// preview tool writes.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward. Functions returning
// images anchor their bounds at the origin.
//
// # Tensor Layout
//
// Tensors are planar: three contiguous planes of width*height float64
// values in [0,1], red plane first. Row-major within a plane, so index
// y*width+x addresses a pixel. TensorToImage inverts the conversion for
// inspection.
//
// # Error Handling
//
// Only disk access can fail here; load errors name the offending path,
// since a single unreadable frame aborts a training run. The pure pixel
// transforms never fail.
package imaging
