package builder

import (
	"go.uber.org/zap"

	"hdoc/attrs"
	"hdoc/tags"
	"hdoc/tree"
)

// Repair gives the end of document character canonical place after a load
// into an empty document. Load builds new body in front of the body that
// held end of document before, that old body is removed and end of document
// goes into the last paragraph of the new one, extending its last run when
// possible. Document in any other shape is left alone, so calling Repair
// again does nothing.
func Repair(doc *tree.Document, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	var action string
	err := doc.Update(func(tx *tree.Tx) error {
		length := tx.Len()
		if length == 0 {
			return nil
		}
		path := tx.PathTo(length - 1)
		if len(path) <= 2 || tx.Attrs(path[1]).Name() != tags.Body || tx.EndOffset(path[1]) != length {
			return nil
		}
		last, err := tx.Text(length-1, 1)
		if err != nil {
			return err
		}

		root := path[0]
		if err := tx.Replace(root, tx.ElementIndex(root, length), 1); err != nil {
			return err
		}

		if p := path[len(path)-1]; len(path) == 3 && tx.Attrs(p).Name() == tags.P && last != "\n" {
			index := tx.ElementIndex(p, length-1)
			leaf := tx.Child(p, index)
			if a := tx.Attrs(leaf); a.Len() == 1 && a.Name() == tags.Content {
				action = "extended run"
				extended, err := tx.NewLeaf(a, tx.StartOffset(leaf), length+1)
				if err != nil {
					return err
				}
				return tx.Replace(p, index, 1, extended)
			}
			action = "added run"
			added, err := tx.NewLeaf(attrs.Named(tags.Content), length, length+1)
			if err != nil {
				return err
			}
			return tx.Replace(p, index+1, 0, added)
		}

		action = "added paragraph"
		body := path[1]
		p := tx.NewBranch(attrs.Named(tags.P))
		leaf, err := tx.NewLeaf(attrs.Named(tags.Content), length, length+1)
		if err != nil {
			return err
		}
		if err := tx.Append(p, leaf); err != nil {
			return err
		}
		return tx.Replace(body, tx.ElementIndex(body, length-1)+1, 0, p)
	})
	if err == nil && action != "" {
		log.Debug("Repaired end of document", zap.String("action", action))
	}
	return err
}
