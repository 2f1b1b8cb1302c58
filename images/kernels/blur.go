package kernels

import "sync"

// EdgeMode defines how kernel taps that fall outside the image are handled.
//   - Skip: the tap contributes nothing and the sum is not renormalized, so
//     pixels near the border come out dimmer than interior pixels.
//   - Clamp: repeats edge pixels.
//   - Mirror: reflects coordinates (better edge energy preservation).
//   - Wrap: tiles the image (for periodic patterns).
type EdgeMode int

const (
	EdgeSkip EdgeMode = iota
	EdgeClamp
	EdgeMirror
	EdgeWrap
)

// String returns the edge mode name as used in configuration files.
func (m EdgeMode) String() string {
	switch m {
	case EdgeSkip:
		return "skip"
	case EdgeClamp:
		return "clamp"
	case EdgeMirror:
		return "mirror"
	case EdgeWrap:
		return "wrap"
	default:
		return "unknown"
	}
}

// Options configures a filter pass beyond the filter parameters themselves.
type Options struct {
	Edge     EdgeMode // Boundary policy for blur taps. Zero value is EdgeSkip.
	Pool     *Pool    // Optional destination buffer pool, reused across redraws.
	Parallel bool     // Split rows across goroutines (rows are independent).
}

// Pool lets callers reuse destination buffers between redraws.
type Pool struct {
	bufs sync.Pool // *[]byte
}

// Get returns a buffer of exactly n bytes. Its contents are unspecified;
// every filter pass fully overwrites it.
func (p *Pool) Get(n int) []byte {
	if p == nil {
		return make([]byte, n)
	}
	if v := p.bufs.Get(); v != nil {
		buf := *(v.(*[]byte))
		if len(buf) == n {
			return buf
		}
	}
	return make([]byte, n)
}

// Put hands a buffer back to the pool.
func (p *Pool) Put(buf []byte) {
	if p == nil || buf == nil {
		return
	}
	p.bufs.Put(&buf)
}

// blurRGBA convolves src with kernel into dst. Only the red, green and blue
// channels are convolved; alpha is copied from src. dst and src must not
// share memory since every output pixel reads a neighborhood of src.
func blurRGBA(dst, src []byte, w, h int, kernel *Kernel, edge EdgeMode, parallel bool) {
	size := kernel.size
	half := kernel.Half()
	stride := w * 4

	rowTask := func(j int) {
		dstRow := j * stride
		for i := 0; i < w; i++ {
			var sumR, sumG, sumB float64

			for y := 0; y < size; y++ {
				sy := mapCoord(j+y-half, h, edge)
				if sy < 0 {
					continue
				}
				srcRow := sy * stride
				kRow := kernel.weights[y*size : (y+1)*size : (y+1)*size]

				for x := 0; x < size; x++ {
					sx := mapCoord(i+x-half, w, edge)
					if sx < 0 {
						continue
					}
					off := srcRow + sx*4
					p := src[off : off+3 : off+3]
					weight := kRow[x]
					sumR += weight * float64(p[0])
					sumG += weight * float64(p[1])
					sumB += weight * float64(p[2])
				}
			}

			off := dstRow + i*4
			dst[off+0] = clamp8(sumR)
			dst[off+1] = clamp8(sumG)
			dst[off+2] = clamp8(sumB)
			dst[off+3] = src[off+3]
		}
	}

	forEachRow(h, parallel, rowTask)
}

// forEachRow runs task for every row in [0, h), optionally splitting rows
// into chunks processed by separate goroutines.
func forEachRow(h int, parallel bool, task func(y int)) {
	if !parallel || h < 4 {
		for y := 0; y < h; y++ {
			task(y)
		}
		return
	}

	// Choose chunk size to avoid too many goroutines and preserve cache locality.
	chunk := chooseChunk(h)
	var wg sync.WaitGroup
	for start := 0; start < h; start += chunk {
		end := start + chunk
		if end > h {
			end = h
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for y := s; y < e; y++ {
				task(y)
			}
		}(start, end)
	}
	wg.Wait()
}

// mapCoord maps an index i to [0, n) according to edge mode.
// For Skip: -1 when i is out of range, meaning the tap is dropped.
// For Clamp: clamp to [0, n-1].
// For Mirror: reflect indices ... -2,-1,0,1,2, ... -> 1,0,0,1,2, ... (no duplication at edges).
// For Wrap: modulo wrap to [0, n).
func mapCoord(i, n int, mode EdgeMode) int {
	if i >= 0 && i < n {
		return i
	}
	switch mode {
	case EdgeClamp:
		if i < 0 {
			return 0
		}
		return n - 1
	case EdgeMirror:
		if n == 1 {
			return 0
		}
		for i < 0 || i >= n {
			if i < 0 {
				i = -i - 1
			} else {
				i = 2*n - i - 1
			}
		}
		return i
	case EdgeWrap:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	default:
		return -1
	}
}

// chooseChunk picks a work chunk size that balances overhead and cache locality.
func chooseChunk(n int) int {
	switch {
	case n >= 2048:
		return 128
	case n >= 512:
		return 64
	default:
		return 32
	}
}
