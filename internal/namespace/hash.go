package namespace

// Buckets is the fixed bucket count of the entry and equation tables.
const Buckets = 3001

// Hash maps a name to its bucket: h = h*31 + b over every byte, in 16-bit
// unsigned arithmetic, reduced modulo Buckets.
func Hash(name string) int {
	var h uint16
	for i := 0; i < len(name); i++ {
		h = h*31 + uint16(name[i])
	}
	return int(h % Buckets)
}
