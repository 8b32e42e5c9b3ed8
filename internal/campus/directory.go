package campus

import "sort"

// Directory is an immutable lookup over the known campuses. It is built once
// per process (or per request from the repository) and shared read-only, so no
// locking is needed.
type Directory struct {
	byID   map[int64]Campus
	byCode map[string]Campus
	ids    []int64
}

// NewDirectory indexes the given campuses. Inactive campuses are kept for
// lookups but excluded from ActiveIDs.
func NewDirectory(campuses []Campus) *Directory {
	d := &Directory{
		byID:   make(map[int64]Campus, len(campuses)),
		byCode: make(map[string]Campus, len(campuses)),
	}
	for _, c := range campuses {
		d.byID[c.ID] = c
		d.byCode[c.Code] = c
		if c.Active {
			d.ids = append(d.ids, c.ID)
		}
	}
	sort.Slice(d.ids, func(i, j int) bool { return d.ids[i] < d.ids[j] })
	return d
}

// ByID returns the campus with the given identifier.
func (d *Directory) ByID(id int64) (Campus, bool) {
	c, ok := d.byID[id]
	return c, ok
}

// ByCode returns the campus with the given short code.
func (d *Directory) ByCode(code string) (Campus, bool) {
	c, ok := d.byCode[code]
	return c, ok
}

// CodeOf returns the short code for an identifier, or empty when unknown.
func (d *Directory) CodeOf(id int64) string {
	if c, ok := d.byID[id]; ok {
		return c.Code
	}
	return ""
}

// ActiveIDs returns the identifiers of all active campuses in ascending order.
// The returned slice is a copy.
func (d *Directory) ActiveIDs() []int64 {
	out := make([]int64, len(d.ids))
	copy(out, d.ids)
	return out
}

// Active returns the active campuses ordered by identifier.
func (d *Directory) Active() []Campus {
	out := make([]Campus, 0, len(d.ids))
	for _, id := range d.ids {
		out = append(out, d.byID[id])
	}
	return out
}
