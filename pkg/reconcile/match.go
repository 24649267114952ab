package reconcile

import (
	"github.com/shelfmark/shelfmark/pkg/isbn"
	"github.com/shelfmark/shelfmark/pkg/models"
)

// ownedIndex is the explicit soft join between volumes and owned items,
// built once per pass. Match priority is a hard rule: ISBN first, declared
// position second.
type ownedIndex struct {
	byISBN     map[string]*models.OwnedItem
	byPosition map[int]*models.OwnedItem
}

func indexOwnedItems(items []*models.OwnedItem) *ownedIndex {
	idx := &ownedIndex{
		byISBN:     map[string]*models.OwnedItem{},
		byPosition: map[int]*models.OwnedItem{},
	}

	for _, item := range items {
		for _, edition := range item.Editions {
			if edition.ISBN == nil {
				continue
			}
			normalized := isbn.Normalize(*edition.ISBN)
			if normalized == "" {
				continue
			}
			if _, taken := idx.byISBN[normalized]; !taken {
				idx.byISBN[normalized] = item
			}
			// Index the ISBN-13 form too so a 10-digit edition still
			// matches a volume that only carries the 13-digit number.
			if equivalent := isbn.To13(normalized); equivalent != "" {
				if _, taken := idx.byISBN[equivalent]; !taken {
					idx.byISBN[equivalent] = item
				}
			}
		}
		if item.Position != nil {
			if _, taken := idx.byPosition[*item.Position]; !taken {
				idx.byPosition[*item.Position] = item
			}
		}
	}

	return idx
}

// match resolves the owned item backing a volume, if any.
func (idx *ownedIndex) match(vol *models.Volume) *models.OwnedItem {
	for _, candidate := range []*string{vol.ISBN13, vol.ISBN10} {
		if candidate == nil {
			continue
		}
		normalized := isbn.Normalize(*candidate)
		if item, ok := idx.byISBN[normalized]; ok {
			return item
		}
		if equivalent := isbn.To13(normalized); equivalent != "" {
			if item, ok := idx.byISBN[equivalent]; ok {
				return item
			}
		}
	}
	if vol.Position != nil {
		if item, ok := idx.byPosition[*vol.Position]; ok {
			return item
		}
	}
	return nil
}

// matchedItemCount reports how many items back at least one volume.
func (idx *ownedIndex) matchedItemCount(volumes []*models.Volume) int {
	matched := map[*models.OwnedItem]struct{}{}
	for _, vol := range volumes {
		if item := idx.match(vol); item != nil {
			matched[item] = struct{}{}
		}
	}
	return len(matched)
}
