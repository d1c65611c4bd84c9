package linkidx

import "github.com/lens-academy/relay/crdtdoc"

// readBacklinkList decodes whatever representation the CRDT map stored for
// a given target (a fresh []string, or []any after a round trip through the
// replica's own encoding) into a plain []string.
func readBacklinkList(bl *crdtdoc.TxnMap, targetUUID string) []string {
	v, ok := bl.Get(targetUUID)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, e := range list {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
