package kernels

import (
	"testing"
)

func benchmarkFilter(b *testing.B, w, h int, params Parameters, size int, opt Options) {
	src := randomPixels(w, h, 1)
	k, err := BuildKernel(size, float64(size)/3)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(src)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out, err := Apply(src, w, h, params, k, opt)
		if err != nil {
			b.Fatal(err)
		}
		opt.Pool.Put(out)
	}
}

func BenchmarkAdjust_1024x591(b *testing.B) {
	benchmarkFilter(b, 1024, 591, Parameters{Brightness: 10, Contrast: 1.2}, 1, Options{})
}

func BenchmarkAdjust_1024x591_Pooled(b *testing.B) {
	benchmarkFilter(b, 1024, 591, Parameters{Brightness: 10, Contrast: 1.2}, 1, Options{Pool: &Pool{}})
}

func BenchmarkBlur_640_k3(b *testing.B) {
	benchmarkFilter(b, 640, 640, Parameters{Mode: ModeBlur}, 3, Options{})
}

func BenchmarkBlur_640_k7(b *testing.B) {
	benchmarkFilter(b, 640, 640, Parameters{Mode: ModeBlur}, 7, Options{})
}

func BenchmarkBlur_640_k7_Parallel(b *testing.B) {
	benchmarkFilter(b, 640, 640, Parameters{Mode: ModeBlur}, 7, Options{Parallel: true, Pool: &Pool{}})
}

func BenchmarkBlur_1080p_k5_Parallel(b *testing.B) {
	benchmarkFilter(b, 1920, 1080, Parameters{Mode: ModeBlur}, 5, Options{Parallel: true, Pool: &Pool{}})
}

func BenchmarkBuildKernel_k21(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := BuildKernel(21, 7); err != nil {
			b.Fatal(err)
		}
	}
}
