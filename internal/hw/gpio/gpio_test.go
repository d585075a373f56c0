package gpio

import "testing"

func TestNewDriver_Mock(t *testing.T) {
	d, err := NewDriver(true)
	if err != nil {
		t.Fatalf("NewDriver(mock): %v", err)
	}
	if _, ok := d.(*MockDriver); !ok {
		t.Errorf("driver = %T, want *MockDriver", d)
	}
}

func TestMockDriver_SetupPWM(t *testing.T) {
	m := NewMockDriver()
	if m.IsPWM(18) {
		t.Fatal("pin 18 should start unconfigured")
	}
	if err := m.SetupPWM(18); err != nil {
		t.Fatal(err)
	}
	if !m.IsPWM(18) || m.IsPWM(12) {
		t.Errorf("IsPWM(18)=%v IsPWM(12)=%v", m.IsPWM(18), m.IsPWM(12))
	}
}

func TestMockDriver_SetDuty(t *testing.T) {
	m := NewMockDriver()
	if err := m.SetDuty(18, 1000, 5, 20); err == nil {
		t.Error("SetDuty on a pin not set up for PWM should fail")
	}
	m.SetupPWM(18)

	cases := []struct {
		duty, cycle uint32
		ok          bool
	}{
		{0, 20, true},
		{20, 20, true},
		{21, 20, false},
		{1, 0, false},
	}
	for _, tc := range cases {
		err := m.SetDuty(18, 1000, tc.duty, tc.cycle)
		if (err == nil) != tc.ok {
			t.Errorf("SetDuty(%d/%d) err = %v, want ok=%v", tc.duty, tc.cycle, err, tc.ok)
		}
	}
	if got := m.DutyOf(18); got != (Duty{Freq: 1000, Duty: 20, Cycle: 20}) {
		t.Errorf("DutyOf = %+v, want last valid duty", got)
	}
}

func TestMockDriver_Close(t *testing.T) {
	m := NewMockDriver()
	if err := m.Close(); err != nil || !m.Closed() {
		t.Errorf("Close: err=%v closed=%v", err, m.Closed())
	}
}
