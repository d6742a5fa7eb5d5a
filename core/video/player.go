package video

import (
	"sync"

	"github.com/pkg/errors"
)

var ErrPlayerClosed = errors.New("player closed")

// Instance is a live embedded player.
type Instance interface {
	Close() error
}

// Factory creates the player instance of a video.
type Factory func(videoID, embedURL string) (Instance, error)

// Player owns at most one Instance at a time.
// Loading another video closes the current instance before the next one is created.
type Player struct {
	mu      sync.Mutex
	factory Factory
	origin  string
	current Instance
	surface Surface
	closed  bool
}

func NewPlayer(origin string, factory Factory) *Player {
	return &Player{factory: factory, origin: origin}
}

// Load shows the video of raw. Loading the video already shown is a no-op.
// A link that does not resolve closes the current instance and leaves the player awaiting a valid link.
func (p *Player) Load(raw string) (Surface, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return Surface{}, ErrPlayerClosed
	}

	next := Render(raw, p.origin)
	if !next.Awaiting && p.current != nil && next.VideoID == p.surface.VideoID {
		return p.surface, nil
	}

	if err := p.release(); err != nil {
		return Surface{}, err
	}
	p.surface = next
	if next.Awaiting {
		return next, nil
	}

	inst, err := p.factory(next.VideoID, next.EmbedURL)
	if err != nil {
		p.surface = Surface{}
		return Surface{}, errors.Wrap(err, "creating player")
	}
	p.current = inst
	return next, nil
}

// Surface returns what the player currently shows.
func (p *Player) Surface() Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.surface
}

// Close releases the current instance. Closing twice is a no-op.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.surface = Surface{}
	return p.release()
}

func (p *Player) release() error {
	if p.current == nil {
		return nil
	}
	inst := p.current
	p.current = nil
	return errors.Wrap(inst.Close(), "closing player")
}
