package markup

import "kculture/internal/domain"

// FieldMap describes how one repeating element maps onto a domain.Record.
type FieldMap struct {
	// Item is the repeating element name, e.g. "db".
	Item string
	// Key names the identifying field. Records with an empty key are dropped.
	// Leave empty for keyless sub-records.
	Key      string
	Fields   []string
	Lists    []string
	Children []FieldMap
}

// Decode maps one block. Child elements are extracted first and then removed
// so that parent fields never pick up a child's value.
func Decode(block string, fm FieldMap) domain.Record {
	record := domain.Record{
		Fields: make(map[string]string, len(fm.Fields)),
	}

	parent := block
	for _, child := range fm.Children {
		if record.Children == nil {
			record.Children = make(map[string][]domain.Record, len(fm.Children))
		}
		record.Children[child.Item] = DecodeAll(block, child)
		parent = StripBlocks(parent, child.Item)
	}

	for _, field := range fm.Fields {
		record.Fields[field] = ExtractValue(parent, field)
	}
	for _, list := range fm.Lists {
		values := ExtractValues(parent, list)
		if len(values) == 0 {
			continue
		}
		if record.Lists == nil {
			record.Lists = make(map[string][]string, len(fm.Lists))
		}
		record.Lists[list] = values
	}
	if fm.Key != "" {
		record.Key = record.Fields[fm.Key]
		if record.Key == "" {
			record.Key = ExtractValue(parent, fm.Key)
		}
	}
	return record
}

// DecodeAll maps every fm.Item block in xml, in document order.
func DecodeAll(xml string, fm FieldMap) []domain.Record {
	blocks := ExtractBlocks(xml, fm.Item)
	records := make([]domain.Record, 0, len(blocks))
	for _, block := range blocks {
		record := Decode(block, fm)
		if fm.Key != "" && record.Key == "" {
			continue
		}
		records = append(records, record)
	}
	return records
}
