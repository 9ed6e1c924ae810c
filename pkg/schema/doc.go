// Package schema provides the JSON wire format of the remote content store.
//
// Blocks travel as typed objects whose content sits under a key named after
// the block type, with rich text encoded as typed run objects:
//
//	{
//	    "object": "block",
//	    "type": "paragraph",
//	    "paragraph": {
//	        "rich_text": [{"type": "text", "text": {"content": "hello"}}],
//	        "children": [...]
//	    }
//	}
//
// Encode and Decode convert between domain blocks and wire objects. The list
// and error envelopes are shared by the HTTP client and the sandbox server so
// both sides agree on pagination and failure codes:
//
//	wire, err := schema.EncodeBlocks(blocks)
//	body, _ := json.Marshal(schema.AppendRequest{Children: wire})
//
// Failures reported by the remote map onto domain.ErrorCode through
// CodeFromWire and WireCode, so retry classification never looks at raw
// status codes.
package schema
