package fit

import "testing"

func TestBaseTypeSentinels(t *testing.T) {
	cases := []struct {
		bt       BaseType
		sentinel uint64
	}{
		{BaseTypeUint8, 0xFF},
		{BaseTypeUint16, 0xFFFF},
		{BaseTypeUint32, 0xFFFFFFFF},
		{BaseTypeUint64, 0xFFFFFFFFFFFFFFFF},
		{BaseTypeUint8z, 0},
		{BaseTypeUint16z, 0},
		{BaseTypeUint32z, 0},
		{BaseTypeUint64z, 0},
		{BaseTypeByte, 0xFF},
		{BaseTypeFloat32, 0xFFFFFFFF},
		{BaseTypeFloat64, 0xFFFFFFFFFFFFFFFF},
	}
	for _, c := range cases {
		info, ok := c.bt.info()
		if !ok {
			t.Errorf("BaseType %#x: not recognized", byte(c.bt))
			continue
		}
		if info.sentinel != c.sentinel {
			t.Errorf("BaseType %#x: sentinel = %#x, want %#x", byte(c.bt), info.sentinel, c.sentinel)
		}
	}
}

func TestBaseTypeSize(t *testing.T) {
	if got := BaseTypeUint32.Size(); got != 4 {
		t.Errorf("BaseTypeUint32.Size() = %d, want 4", got)
	}
	if got := BaseType(0x99).Size(); got != 0 {
		t.Errorf("unknown BaseType.Size() = %d, want 0", got)
	}
}

func TestBaseTypeIsValid(t *testing.T) {
	if !BaseTypeEnum.IsValid() {
		t.Error("BaseTypeEnum.IsValid() = false, want true")
	}
	if BaseType(0x99).IsValid() {
		t.Error("unknown BaseType.IsValid() = true, want false")
	}
}
