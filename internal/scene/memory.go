package scene

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/cylinder.roi/internal/geometry"
)

type memTransform struct {
	handle    Handle
	placement geometry.Placement
}

type memSegmentation struct {
	handle    Handle
	transform string // observed transform ID, empty when unset
	segments  []Segment
}

var (
	_ Scene  = (*MemoryScene)(nil)
	_ Lister = (*MemoryScene)(nil)
)

// MemoryScene is an in-process Scene. It is safe for concurrent use.
type MemoryScene struct {
	mu            sync.RWMutex
	transforms    map[string]*memTransform
	segmentations map[string]*memSegmentation
	byName        map[Kind]map[string]string
}

// NewMemoryScene returns an empty scene.
func NewMemoryScene() *MemoryScene {
	return &MemoryScene{
		transforms:    make(map[string]*memTransform),
		segmentations: make(map[string]*memSegmentation),
		byName: map[Kind]map[string]string{
			KindTransform:    {},
			KindSegmentation: {},
		},
	}
}

func (s *MemoryScene) FindByName(_ context.Context, kind Kind, name string) (Handle, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names, ok := s.byName[kind]
	if !ok {
		return Handle{}, false, fmt.Errorf("unknown node kind %q", kind)
	}
	id, ok := names[name]
	if !ok {
		return Handle{}, false, nil
	}
	return Handle{ID: id, Name: name, Kind: kind}, true, nil
}

func (s *MemoryScene) CreateTransform(_ context.Context, name string) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.byName[KindTransform][name]; dup {
		return Handle{}, fmt.Errorf("transform %q already exists", name)
	}
	h := Handle{ID: uuid.New().String(), Name: name, Kind: KindTransform}
	s.transforms[h.ID] = &memTransform{handle: h, placement: geometry.Identity()}
	s.byName[KindTransform][name] = h.ID
	return h, nil
}

func (s *MemoryScene) CreateSegmentation(_ context.Context, name string) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.byName[KindSegmentation][name]; dup {
		return Handle{}, fmt.Errorf("segmentation %q already exists", name)
	}
	h := Handle{ID: uuid.New().String(), Name: name, Kind: KindSegmentation}
	s.segmentations[h.ID] = &memSegmentation{handle: h}
	s.byName[KindSegmentation][name] = h.ID
	return h, nil
}

func (s *MemoryScene) SetTransform(_ context.Context, transform Handle, p geometry.Placement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tf, ok := s.transforms[transform.ID]
	if !ok {
		return fmt.Errorf("transform %s: %w", transform.ID, ErrNodeNotFound)
	}
	tf.placement = p
	return nil
}

func (s *MemoryScene) Observe(_ context.Context, segmentation, transform Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, ok := s.segmentations[segmentation.ID]
	if !ok {
		return fmt.Errorf("segmentation %s: %w", segmentation.ID, ErrNodeNotFound)
	}
	if _, ok := s.transforms[transform.ID]; !ok {
		return fmt.Errorf("transform %s: %w", transform.ID, ErrNodeNotFound)
	}
	seg.transform = transform.ID
	return nil
}

func (s *MemoryScene) ReplaceSegments(_ context.Context, segmentation Handle, segs []Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, ok := s.segmentations[segmentation.ID]
	if !ok {
		return fmt.Errorf("segmentation %s: %w", segmentation.ID, ErrNodeNotFound)
	}
	seg.segments = append([]Segment(nil), segs...)
	return nil
}

// Segments returns the segments currently held by a container.
func (s *MemoryScene) Segments(segmentation Handle) ([]Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seg, ok := s.segmentations[segmentation.ID]
	if !ok {
		return nil, fmt.Errorf("segmentation %s: %w", segmentation.ID, ErrNodeNotFound)
	}
	return append([]Segment(nil), seg.segments...), nil
}

// Placement returns the placement of a transform node.
func (s *MemoryScene) Placement(transform Handle) (geometry.Placement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tf, ok := s.transforms[transform.ID]
	if !ok {
		return geometry.Placement{}, fmt.Errorf("transform %s: %w", transform.ID, ErrNodeNotFound)
	}
	return tf.placement, nil
}

// Count returns the number of nodes of the given kind.
func (s *MemoryScene) Count(kind Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byName[kind])
}

// ListROIs returns every segmentation container sorted by name.
func (s *MemoryScene) ListROIs(_ context.Context) ([]ROIRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ROIRecord, 0, len(s.segmentations))
	for _, seg := range s.segmentations {
		rec := ROIRecord{Segmentation: seg.handle, Segments: make([]SegmentInfo, 0, len(seg.segments))}
		if tf, ok := s.transforms[seg.transform]; ok {
			h, p := tf.handle, tf.placement
			rec.Transform = &h
			rec.Placement = &p
		}
		for _, sg := range seg.segments {
			info := SegmentInfo{Name: sg.Name}
			if sg.Surface != nil {
				info.Triangles = sg.Surface.NumTriangles()
			}
			rec.Segments = append(rec.Segments, info)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Segmentation.Name < out[j].Segmentation.Name })
	return out, nil
}
