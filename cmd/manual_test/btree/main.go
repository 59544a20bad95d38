package main

import (
	"fmt"
	"log"

	"github.com/tuannm99/tinysql/internal/index"
	"github.com/tuannm99/tinysql/internal/record"
)

func main() {
	keys := []string{"user-7", "user-2", "10", "user-9", "3", "user-1", "42", "user-5"}

	for _, hashed := range []bool{false, true} {
		opts := []index.Option{index.WithCompare(record.Collate)}
		if hashed {
			opts = append(opts, index.WithHashedKeys(record.Canonical))
		}
		idx, err := index.New(index.KindBTree, opts...)
		if err != nil {
			log.Fatalf("New: %v", err)
		}
		for pos, k := range keys {
			idx.Insert(k, pos)
		}

		fmt.Printf("hashed=%v ordered=%v entries=%d\n", hashed, idx.Ordered(), idx.Len())
		fmt.Println("  search user-9:", idx.Search("USER-9"))
		fmt.Println("  < user-5:     ", idx.SearchLessThan("user-5"))
		fmt.Println("  >= 10:        ", idx.SearchGreaterOrEqual("10"))
		like, err := idx.SearchLike("user-_")
		if err != nil {
			log.Fatalf("SearchLike: %v", err)
		}
		fmt.Println("  like user-_:  ", like)
	}
}
