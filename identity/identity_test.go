package identity

import "testing"

func TestUpdateEmpty(t *testing.T) {
	if !(Update{}).Empty() {
		t.Fatal("zero update must be empty")
	}
	name := "bob"
	if (Update{Username: &name}).Empty() {
		t.Fatal("update with username must not be empty")
	}
}
