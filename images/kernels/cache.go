package kernels

import "sync"

// KernelCache keeps the most recently built Gaussian kernel and rebuilds it
// only when the requested size or sigma changes.
type KernelCache struct {
	mu     sync.RWMutex
	kernel *Kernel
	builds int
}

// NewKernelCache returns an empty cache.
func NewKernelCache() *KernelCache {
	return &KernelCache{}
}

// Get returns a kernel for size and sigma, building it on a miss.
func (c *KernelCache) Get(size int, sigma float64) (*Kernel, error) {
	c.mu.RLock()
	if k := c.kernel; k != nil && k.size == size && k.sigma == sigma {
		c.mu.RUnlock()
		return k, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have built it while we waited for the write lock.
	if k := c.kernel; k != nil && k.size == size && k.sigma == sigma {
		return k, nil
	}

	k, err := BuildKernel(size, sigma)
	if err != nil {
		return nil, err
	}
	c.kernel = k
	c.builds++
	return k, nil
}

// Builds reports how many kernels the cache has generated.
func (c *KernelCache) Builds() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.builds
}
