package capture

import (
	"errors"
	"time"
)

// ErrNoData indicates a transient empty read; the caller should yield briefly
// and retry without logging.
var ErrNoData = errors.New("capture: no data available")

// ErrPoolExhausted indicates that all blocks are currently borrowed. It means
// a consumer is holding blocks longer than one copy, which the pipeline is
// designed to never do.
var ErrPoolExhausted = errors.New("capture: block pool exhausted")

// Source yields discrete blocks of signed 16-bit PCM samples on demand.
// Returned blocks are borrowed from a bounded pool and must be released as
// soon as their samples have been copied out.
type Source interface {
	// Read returns the next block of samples, waiting at most timeout.
	// A transient empty read is reported as ErrNoData.
	Read(timeout time.Duration) (*Block, error)

	// Close releases driver resources. The source must not be read after
	// Close returns.
	Close() error
}

// Block is a reusable sample buffer borrowed from a BlockPool for the
// duration of one copy.
type Block struct {
	samples []int16
	n       int
	pool    *BlockPool
}

// Samples returns the valid samples in the block.
func (b *Block) Samples() []int16 {
	return b.samples[:b.n]
}

// Release returns the block to its pool. The block must not be used after
// Release.
func (b *Block) Release() {
	b.n = 0
	b.pool.put(b)
}

// BlockPool is a fixed-size pool of capture blocks. Pool size bounds how much
// audio can be in flight between the driver and the ring at any moment.
type BlockPool struct {
	blocks chan *Block
	size   int
}

// NewBlockPool creates a pool of count blocks holding blockSamples samples
// each.
func NewBlockPool(count, blockSamples int) *BlockPool {
	if count < 1 {
		count = 1
	}
	p := &BlockPool{
		blocks: make(chan *Block, count),
		size:   count,
	}
	for i := 0; i < count; i++ {
		p.blocks <- &Block{
			samples: make([]int16, blockSamples),
			pool:    p,
		}
	}
	return p
}

// Get borrows a block from the pool, waiting at most timeout for one to
// become free.
func (p *BlockPool) Get(timeout time.Duration) (*Block, error) {
	select {
	case b := <-p.blocks:
		b.n = len(b.samples)
		return b, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case b := <-p.blocks:
		b.n = len(b.samples)
		return b, nil
	case <-timer.C:
		return nil, ErrPoolExhausted
	}
}

// Free returns the number of blocks currently available.
func (p *BlockPool) Free() int {
	return len(p.blocks)
}

// Size returns the total number of blocks owned by the pool.
func (p *BlockPool) Size() int {
	return p.size
}

func (p *BlockPool) put(b *Block) {
	select {
	case p.blocks <- b:
	default:
		// Double release; drop the block rather than block the caller.
	}
}
