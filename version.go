package mcp

// ProtocolVersion constants, in ISO-date wire form.
const (
	ProtocolVersion20241105 = "2024-11-05"
	ProtocolVersion20250326 = "2025-03-26"
	ProtocolVersion20250618 = "2025-06-18"
)

// validVersions is the set of versions the protocol recognizes, including
// one the server does not support. HandleInitialize does not consult it:
// every requested version outside supportedVersions, recognized or not,
// gets the same "Unsupported protocol version" error.
var validVersions = map[string]bool{
	ProtocolVersion20241105: true,
	ProtocolVersion20250326: true,
	ProtocolVersion20250618: true,
}

// supportedVersions is the set the server will actually negotiate.
// 2024-11-05 requires SSE streaming, which this server does not implement.
var supportedVersions = []string{
	ProtocolVersion20250326,
	ProtocolVersion20250618,
}

func isValidVersion(v string) bool {
	return validVersions[v]
}

func isSupportedVersion(v string) bool {
	for _, s := range supportedVersions {
		if s == v {
			return true
		}
	}
	return false
}

// versionLess compares two protocol versions lexicographically on their
// ISO-date wire form. This happens to match semantic ordering for every
// version in the defined set; keep a single comparator so a new version
// string can't silently break the ordering.
func versionLess(a, b string) bool {
	return a < b
}

// shapeToolDescriptor strips fields the negotiated version doesn't carry.
// Versions before 2025-06-18 never saw `title` or `outputSchema` on a
// tool descriptor.
func shapeToolDescriptor(d ToolDescriptor, negotiated string) ToolDescriptor {
	if !versionLess(negotiated, ProtocolVersion20250618) {
		return d
	}
	shaped := d
	shaped.Title = ""
	shaped.OutputSchema = nil
	return shaped
}

// shapeToolResult strips structuredContent for versions before 2025-06-18.
// Tool authors that declare an OutputSchema are expected to also return
// unstructured content, so shaping never yields an empty result.
func shapeToolResult(r ToolResult, negotiated string) ToolResult {
	if !versionLess(negotiated, ProtocolVersion20250618) {
		return r
	}
	shaped := r
	shaped.StructuredContent = nil
	return shaped
}
