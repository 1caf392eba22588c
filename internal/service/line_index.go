package service

import "github.com/kenqu-rs/kugelpos-backend/internal/domain"

// lineIndex is a lookup view over one snapshot's lines. It points into the
// snapshot's slice and must not outlive the call that built it.
type lineIndex struct {
	byCode   map[string]*domain.LineItem // active lines only
	byLineNo map[int]*domain.LineItem    // every line, cancelled included
}

func newLineIndex(lines []domain.LineItem) lineIndex {
	idx := lineIndex{
		byCode:   make(map[string]*domain.LineItem, len(lines)),
		byLineNo: make(map[int]*domain.LineItem, len(lines)),
	}
	for i := range lines {
		li := &lines[i]
		idx.byLineNo[li.LineNo] = li
		if !li.IsCancelled {
			// later lines win if a code was ever entered twice
			idx.byCode[li.ItemCode] = li
		}
	}
	return idx
}

func (idx lineIndex) activeByCode(itemCode string) (*domain.LineItem, bool) {
	li, ok := idx.byCode[itemCode]
	return li, ok
}

// activeByLineNo reports a missing line and a cancelled line the same way.
func (idx lineIndex) activeByLineNo(lineNo int) (*domain.LineItem, bool) {
	li, ok := idx.byLineNo[lineNo]
	if !ok || li.IsCancelled {
		return nil, false
	}
	return li, true
}
