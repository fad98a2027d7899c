package handle

import "unsafe"

// Layout describes the size and alignment of an allocation. The handle
// header records the layout of its full concrete representation so the
// memory can be accounted for even when the payload's destructor cannot
// run.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// LayoutFor returns the layout of T.
func LayoutFor[T any]() Layout {
	var t T
	return Layout{Size: unsafe.Sizeof(t), Align: unsafe.Alignof(t)}
}

// Extend appends next to l, honoring next's alignment. It returns the
// combined layout and the offset at which next begins. The offset can
// exceed l.Size when padding is needed.
func (l Layout) Extend(next Layout) (Layout, uintptr) {
	offset := alignTo(l.Size, next.Align)

	align := l.Align
	if next.Align > align {
		align = next.Align
	}

	return Layout{
		Size:  alignTo(offset+next.Size, align),
		Align: align,
	}, offset
}

// alignTo rounds n up to the next multiple of align.
// align must be a power of two.
func alignTo(n, align uintptr) uintptr {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}
