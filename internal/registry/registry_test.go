package registry

import "testing"

func TestRegisterGetDeregister(t *testing.T) {
	const name Name = "test_service"
	t.Cleanup(func() { Deregister(name) })

	if Get(name) != nil {
		t.Fatal("Get should return nil before anything is registered")
	}

	Register(name, "hello")
	if got := Get(name); got != "hello" {
		t.Fatalf("Get = %v, want %q", got, "hello")
	}

	Register(name, "world")
	if got := Get(name); got != "world" {
		t.Fatalf("Get after re-register = %v, want %q", got, "world")
	}

	Deregister(name)
	if Get(name) != nil {
		t.Fatal("Get should return nil after Deregister")
	}
}

func TestGetUnknownNameIsNil(t *testing.T) {
	if Get(Name("does_not_exist")) != nil {
		t.Fatal("Get of an unregistered name must return nil, not panic")
	}
}
