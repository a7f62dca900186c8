package archive_test

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/siren"
	"github.com/stewi1014/siren/archive"
	"github.com/stewi1014/siren/encio"
	"github.com/stewi1014/siren/internal/sirentest"
	"go.etcd.io/bbolt"
)

func openStore(t *testing.T) (*archive.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "objects.db")
	s, err := archive.Open(path, &archive.Options{NoSync: true, Timeout: time.Second})
	if !td.CmpNoError(t, err) {
		t.FailNow()
	}
	return s, path
}

func molecule() *sirentest.Molecule {
	h := siren.NewRef(&sirentest.Point{Label: "H"})
	return &sirentest.Molecule{
		Named:  sirentest.Named{Name: "H2O"},
		Atoms:  []siren.ObjRef{h, siren.NewRef(&sirentest.Point{Label: "O"}), h},
		Centre: h,
		Extra:  &siren.Blob{Data: []byte{1, 2, 3}},
	}
}

func TestPutGet(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()

	for _, f := range []archive.Format{archive.Binary, archive.XML} {
		before := time.Now()
		meta, err := s.Put("water-"+f.String(), molecule(), f)
		td.CmpNoError(t, err)
		td.Cmp(t, meta.Format, f)
		td.Cmp(t, meta.TypeName, "sirentest.Molecule")
		td.CmpTrue(t, meta.Size > 0)
		td.CmpFalse(t, meta.Saved.Before(before.Add(-time.Second)))

		got, err := s.Get("water-" + f.String())
		td.CmpNoError(t, err)
		m := got.(*sirentest.Molecule)
		td.CmpTrue(t, molecule().Equals(m), f.String())
		td.CmpTrue(t, m.Atoms[0].SameResource(m.Atoms[2]), f.String())
		td.CmpTrue(t, m.Atoms[0].SameResource(m.Centre), f.String())

		stored, err := s.Meta("water-" + f.String())
		td.CmpNoError(t, err)
		td.Cmp(t, stored.Checksum, meta.Checksum)
		td.Cmp(t, stored.Size, meta.Size)
		td.CmpTrue(t, stored.Saved.Equal(meta.Saved))
	}
}

func TestPutNil(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()

	meta, err := s.Put("nothing", nil, archive.Binary)
	td.CmpNoError(t, err)
	td.Cmp(t, meta.TypeName, "siren.None")

	got, err := s.Get("nothing")
	td.CmpNoError(t, err)
	td.CmpTrue(t, siren.IsNone(got))
}

func TestListDelete(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()

	for _, name := range []string{"c", "a", "b"} {
		_, err := s.Put(name, siren.Wrap(name), archive.XML)
		td.CmpNoError(t, err)
	}

	metas, err := s.List()
	td.CmpNoError(t, err)
	td.Cmp(t, metas, td.Smuggle(func(metas []archive.Meta) []string {
		names := make([]string, len(metas))
		for i, m := range metas {
			names[i] = m.Name
		}
		return names
	}, []string{"a", "b", "c"}))

	td.CmpNoError(t, s.Delete("b"))
	td.CmpTrue(t, errors.Is(s.Delete("b"), archive.ErrNotFound))

	_, err = s.Get("b")
	td.CmpTrue(t, errors.Is(err, archive.ErrNotFound))
	_, err = s.Meta("b")
	td.CmpTrue(t, errors.Is(err, archive.ErrNotFound))

	metas, err = s.List()
	td.CmpNoError(t, err)
	td.Cmp(t, len(metas), 2)

	_, err = s.Put("", siren.None, archive.Binary)
	td.CmpTrue(t, errors.Is(err, encio.ErrInvalidOperation))
	_, err = s.Put("x", siren.None, archive.Format(9))
	td.CmpTrue(t, errors.Is(err, encio.ErrInvalidOperation))
}

func TestChecksum(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()

	_, err := s.Put("point", &sirentest.Point{X: 1}, archive.Binary)
	td.CmpNoError(t, err)

	err = s.Bolt().Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte("payloads"))
		data := append([]byte(nil), b.Get([]byte("point"))...)
		data[len(data)-1] ^= 0xff
		return b.Put([]byte("point"), data)
	})
	td.CmpNoError(t, err)

	_, err = s.Get("point")
	td.CmpTrue(t, errors.Is(err, encio.ErrCorruptedData))
	td.Cmp(t, err.Error(), td.Contains("checksum"))
}

func TestReadOnly(t *testing.T) {
	s, path := openStore(t)
	_, err := s.Put("p", &sirentest.Point{Label: "kept"}, archive.Binary)
	td.CmpNoError(t, err)
	td.CmpNoError(t, s.Close())

	ro, err := archive.Open(path, &archive.Options{ReadOnly: true, Timeout: time.Second})
	td.CmpNoError(t, err)
	defer ro.Close()

	got, err := ro.Get("p")
	td.CmpNoError(t, err)
	td.Cmp(t, got, &sirentest.Point{Label: "kept"})

	_, err = ro.Put("q", siren.None, archive.Binary)
	td.CmpTrue(t, errors.Is(err, bbolt.ErrDatabaseReadOnly))
}

func TestConcurrentAccess(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a' + i))
			if _, err := s.Put(name, siren.Wrap(int64(i)), archive.Format(i%2)); err != nil {
				t.Errorf("put %v: %v", name, err)
				return
			}
			got, err := s.Get(name)
			if err != nil {
				t.Errorf("get %v: %v", name, err)
				return
			}
			if v, _ := siren.Unwrap[int64](got); v != int64(i) {
				t.Errorf("get %v: got %v", name, v)
			}
		}(i)
	}
	wg.Wait()

	metas, err := s.List()
	td.CmpNoError(t, err)
	td.Cmp(t, len(metas), 8)
}
