package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tuannm99/tinysql"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func show(s *tinysql.Store, title string, where *tinysql.Predicate, ob *tinysql.OrderBy) {
	res, err := s.Select("T", []string{"*"}, where, ob)
	must(err)
	fmt.Println("--", title)
	must(res.Print(os.Stdout))
}

func main() {
	root := filepath.Join("data", "test", "walkthrough")
	must(os.RemoveAll(root))

	s, err := tinysql.Open(tinysql.Options{
		Root:   root,
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	must(err)
	defer s.Close()

	must(s.CreateDatabase("D"))
	must(s.SetDatabase("D"))
	must(s.CreateTable("T", []tinysql.Column{
		{Name: "id", Type: tinysql.Integer},
		{Name: "name", Type: tinysql.Text},
	}))
	must(s.InsertValues("T", 1, "a"))
	must(s.InsertValues("T", 2, "b"))
	show(s, "select * from T", nil, nil)

	must(s.CreateIndex("idx_t_id", "T", "id", "BTREE"))
	err = s.InsertValues("T", 1, "c")
	fmt.Println("-- insert (1, c):", tinysql.StatusOf(err), err)

	show(s, "where name LIKE 'a%'", &tinysql.Predicate{Column: "name", Op: tinysql.Like, Value: "a%"}, nil)

	n, err := s.Update("T", []tinysql.Assignment{{Column: "name", Value: "z"}}, &tinysql.Predicate{Column: "id", Op: tinysql.Eq, Value: "2"})
	must(err)
	fmt.Println("-- updated", n)
	show(s, "order by id DESC", nil, &tinysql.OrderBy{Column: "id", Direction: tinysql.Desc})

	n, err = s.Delete("T", &tinysql.Predicate{Column: "id", Op: tinysql.Eq, Value: "1"})
	must(err)
	fmt.Println("-- deleted", n)
	show(s, "where id = 2 (index)", &tinysql.Predicate{Column: "id", Op: tinysql.Eq, Value: "2"}, nil)

	must(s.DropTable("T"))
	_, err = s.Select("T", nil, nil, nil)
	fmt.Println("-- select after drop:", tinysql.StatusOf(err), err)
}
