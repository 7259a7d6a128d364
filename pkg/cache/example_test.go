package cache_test

import (
	"fmt"
	"log"

	"github.com/vnykmshr/chunkflow/pkg/cache"
)

func ExampleAdaptiveCache() {
	c, err := cache.New[string, int](128)
	if err != nil {
		log.Fatal(err)
	}

	c.Set("answer", 42)

	if v, ok := c.Get("answer"); ok {
		fmt.Println(v)
	}
	if _, ok := c.Get("question"); !ok {
		fmt.Println("miss")
	}

	st := c.Stats()
	fmt.Println(st.Hits, st.Misses)
	// Output:
	// 42
	// miss
	// 1 1
}
