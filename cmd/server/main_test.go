package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	web "household/internal/adapters/http"
	"household/internal/adapters/localdir"
	"household/internal/adapters/storage/storetest"
	"household/internal/config"
	"household/internal/domain/program"
)

func TestOpenBackend_Local(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.yaml")
	doc := "programs:\n  - {id: swim, category: swim, name: Swim Basics, min_age: 5, max_age: 9}\n"
	if err := os.WriteFile(catalog, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	back, err := openBackend(ctx, config.Config{DBPath: filepath.Join(dir, "household.db"), CatalogPath: catalog})
	if err != nil {
		t.Fatal(err)
	}
	defer back.close()

	if back.db == nil || back.seeded != 1 {
		t.Errorf("local backend: db %v, seeded %d", back.db, back.seeded)
	}
	if err := back.health(ctx); err != nil {
		t.Errorf("health: %v", err)
	}
	if programs, err := back.dir.ListPrograms(ctx, program.Filter{}); err != nil || len(programs) != 1 {
		t.Errorf("programs = %+v, %v", programs, err)
	}
}

func TestOpenBackend_Remote(t *testing.T) {
	ctx := context.Background()
	local := localdir.New(storetest.OpenDB(t), nil)
	if err := local.Programs.Save(ctx, program.Program{ID: "swim", Category: "swim", Name: "Swim Basics", MinAge: 5, MaxAge: 9}); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(web.NewMux(web.Deps{Directory: local}, web.Options{
		CSRFKey:            []byte(strings.Repeat("c", 32)),
		RateLimitPerSecond: 10000,
	}))
	t.Cleanup(srv.Close)

	back, err := openBackend(ctx, config.Config{
		DBPath:         filepath.Join(t.TempDir(), "unused.db"),
		DirectoryURL:   srv.URL,
		DirectoryToken: "service-token",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer back.close()

	if back.db != nil || back.name != srv.URL {
		t.Errorf("remote backend opened a local database: %+v", back)
	}
	if err := back.health(ctx); err != nil {
		t.Errorf("health: %v", err)
	}
	programs, err := back.dir.ListPrograms(ctx, program.Filter{ActiveOnly: true, Age: 7, HasAge: true})
	if err != nil || len(programs) != 1 || programs[0].ID != "swim" {
		t.Errorf("remote programs = %+v, %v", programs, err)
	}

	srv.Close()
	if err := back.health(ctx); err == nil {
		t.Error("health passed with the remote service down")
	}
}
