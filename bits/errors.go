package bits

import "fmt"

func errOutOfRange(kind string, pos, width int) error {
	return fmt.Errorf("bits: %s bit position %d out of range [0,%d)", kind, pos, width)
}
