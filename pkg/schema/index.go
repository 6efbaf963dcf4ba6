package schema

// Index provides identifier lookups over a [Database]. It points into the
// database it was built from and must not outlive changes to it.
type Index struct {
	tables map[string]*Table
	fields map[string]*Field
	owners map[string]*Table
}

// Index builds lookup tables for db. A nil database yields an empty index.
//
// When identifiers repeat, the first declaration wins.
func (db *Database) Index() *Index {
	idx := &Index{
		tables: make(map[string]*Table),
		fields: make(map[string]*Field),
		owners: make(map[string]*Table),
	}
	if db == nil {
		return idx
	}
	for si := range db.Schemas {
		s := &db.Schemas[si]
		for ti := range s.Tables {
			t := &s.Tables[ti]
			if _, dup := idx.tables[t.ID]; !dup {
				idx.tables[t.ID] = t
			}
			for fi := range t.Fields {
				f := &t.Fields[fi]
				if _, dup := idx.fields[f.ID]; !dup {
					idx.fields[f.ID] = f
					idx.owners[f.ID] = t
				}
			}
		}
	}
	return idx
}

// Table returns the table with the given id.
func (idx *Index) Table(id string) (*Table, bool) {
	t, ok := idx.tables[id]
	return t, ok
}

// Field returns the field with the given id.
func (idx *Index) Field(id string) (*Field, bool) {
	f, ok := idx.fields[id]
	return f, ok
}

// FieldTable returns the table whose Fields list declares the field.
// Position wins over a disagreeing Field.TableID.
func (idx *Index) FieldTable(fieldID string) (*Table, bool) {
	t, ok := idx.owners[fieldID]
	return t, ok
}
