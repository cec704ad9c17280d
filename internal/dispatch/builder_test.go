package dispatch

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
}

// resolve walks segments from root using only the Node capability.
func resolve(t *testing.T, root Node, path string) Node {
	t.Helper()
	segments, err := SplitPath(path)
	require.NoError(t, err)

	n := root
	for _, s := range segments {
		child, ok := n.Child(s)
		require.Truef(t, ok, "segment %q of %q not found", s, path)
		n = child
	}
	return n
}

func dumpString(t *testing.T, root Node) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, root))
	return buf.String()
}

func permutations(n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	var out [][]int
	for _, p := range permutations(n - 1) {
		for i := 0; i <= len(p); i++ {
			q := make([]int, 0, n)
			q = append(q, p[:i]...)
			q = append(q, n-1)
			q = append(q, p[i:]...)
			out = append(out, q)
		}
	}
	return out
}

func TestBuild_EmptyMountsYieldsRootOnly(t *testing.T) {
	root, err := Build(nil)
	require.NoError(t, err)
	assert.True(t, IsPlaceholder(root))
	assert.Empty(t, root.ChildNames())
}

func TestBuild_SingleSegmentMountsUnderRoot(t *testing.T) {
	a := NewResource("a", okHandler("a"))

	root, err := Build([]Mount{{Path: "/a", Node: a}})
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, root.ChildNames())
	assert.Same(t, a, resolve(t, root, "/a"))
}

func TestBuild_InteriorSegmentsBecomePlaceholders(t *testing.T) {
	leaf := NewResource("leaf", okHandler("leaf"))

	root, err := Build([]Mount{{Path: "/x/y/z", Node: leaf}})
	require.NoError(t, err)

	assert.True(t, IsPlaceholder(resolve(t, root, "/x")))
	assert.True(t, IsPlaceholder(resolve(t, root, "/x/y")))
	assert.Same(t, leaf, resolve(t, root, "/x/y/z"))
}

func TestBuild_DeepMountBeforeShallowIsTransplanted(t *testing.T) {
	ab := NewResource("ab", okHandler("ab"))
	a := NewResource("a", okHandler("a"))

	root, err := Build([]Mount{
		{Path: "/a/b", Node: ab},
		{Path: "/a", Node: a},
	})
	require.NoError(t, err)

	assert.Same(t, a, resolve(t, root, "/a"))
	assert.Equal(t, []string{"b"}, a.ChildNames())
	assert.Same(t, ab, resolve(t, root, "/a/b"))
}

func TestBuild_TransplantKeepsWholeSubtree(t *testing.T) {
	deep := NewResource("deep", okHandler("deep"))
	sibling := NewResource("sibling", okHandler("sibling"))
	a := NewResource("a", okHandler("a"))

	root, err := Build([]Mount{
		{Path: "/a/b/c/d", Node: deep},
		{Path: "/a/e", Node: sibling},
		{Path: "/a", Node: a},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "e"}, a.ChildNames())
	assert.Same(t, deep, resolve(t, root, "/a/b/c/d"))
	assert.Same(t, sibling, resolve(t, root, "/a/e"))
}

func TestBuild_DuplicatePathLaterMountWinsAndInheritsChildren(t *testing.T) {
	first := NewResource("first", okHandler("first"))
	second := NewResource("second", okHandler("second"))
	child := NewResource("child", okHandler("child"))

	root, err := Build([]Mount{
		{Path: "/a/b", Node: first},
		{Path: "/a/b/c", Node: child},
		{Path: "/a/b", Node: second},
	})
	require.NoError(t, err)

	assert.Same(t, second, resolve(t, root, "/a/b"))
	assert.Same(t, child, resolve(t, root, "/a/b/c"))
	assert.Equal(t, []string{"c"}, second.ChildNames())
}

func TestBuild_DuplicatePathInheritsCallerAttachedChildren(t *testing.T) {
	first := NewResource("first", okHandler("first"))
	own := NewResource("own", okHandler("own"))
	first.PutChild("own", own)
	second := NewResource("second", okHandler("second"))

	root, err := Build([]Mount{
		{Path: "/a/b", Node: first},
		{Path: "/a/b", Node: second},
	})
	require.NoError(t, err)

	assert.Same(t, second, resolve(t, root, "/a/b"))
	assert.Same(t, own, resolve(t, root, "/a/b/own"))
}

func TestBuild_MountsUnderPreviouslyMountedHandler(t *testing.T) {
	a := NewResource("a", okHandler("a"))
	abc := NewResource("abc", okHandler("abc"))

	root, err := Build([]Mount{
		{Path: "/a", Node: a},
		{Path: "/a/b/c", Node: abc},
	})
	require.NoError(t, err)

	assert.Same(t, a, resolve(t, root, "/a"))
	assert.True(t, IsPlaceholder(resolve(t, root, "/a/b")))
	assert.Same(t, abc, resolve(t, root, "/a/b/c"))
}

func TestBuild_TopologyIsOrderIndependent(t *testing.T) {
	paths := []string{"/a", "/a/b", "/a/b/c", "/a/d", "/x/y"}

	var want string
	for _, perm := range permutations(len(paths)) {
		mounts := make([]Mount, 0, len(paths))
		for _, i := range perm {
			mounts = append(mounts, Mount{Path: paths[i], Node: NewResource(paths[i], okHandler(paths[i]))})
		}

		root, err := Build(mounts)
		require.NoError(t, err)

		for _, p := range paths {
			r, ok := resolve(t, root, p).(*Resource)
			require.True(t, ok)
			assert.Equal(t, p, r.Name, "order %v", perm)
		}

		got := dumpString(t, root)
		if want == "" {
			want = got
			continue
		}
		assert.Equal(t, want, got, "order %v", perm)
	}
}

func TestBuildWithRoot_UsesCallerRoot(t *testing.T) {
	root := NewResource("root", okHandler("root"))
	a := NewResource("a", okHandler("a"))

	got, err := BuildWithRoot(root, []Mount{{Path: "/a", Node: a}})
	require.NoError(t, err)

	assert.Same(t, root, got)
	assert.Same(t, a, resolve(t, got, "/a"))
}

func TestBuild_TrailingSlashIsIgnored(t *testing.T) {
	a := NewResource("a", okHandler("a"))

	root, err := Build([]Mount{{Path: "/a/b/", Node: a}})
	require.NoError(t, err)
	assert.Same(t, a, resolve(t, root, "/a/b"))
}

func TestBuild_InvalidInput(t *testing.T) {
	res := NewResource("r", okHandler("r"))

	tests := []struct {
		name    string
		mounts  []Mount
		wantErr error
	}{
		{name: "root path", mounts: []Mount{{Path: "/", Node: res}}, wantErr: ErrInvalidMountPath},
		{name: "empty path", mounts: []Mount{{Path: "", Node: res}}, wantErr: ErrInvalidMountPath},
		{name: "empty segment", mounts: []Mount{{Path: "/a//b", Node: res}}, wantErr: ErrInvalidMountPath},
		{name: "nil node", mounts: []Mount{{Path: "/a", Node: nil}}, wantErr: ErrNilNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.mounts)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuild_InvalidMountLeavesRootUntouched(t *testing.T) {
	root := NewResource("root", nil)
	_, err := BuildWithRoot(root, []Mount{
		{Path: "/ok", Node: NewResource("ok", okHandler("ok"))},
		{Path: "/bad//path", Node: NewResource("bad", okHandler("bad"))},
	})
	require.ErrorIs(t, err, ErrInvalidMountPath)
	assert.Empty(t, root.ChildNames())
}

func TestBuildWithRoot_NilRoot(t *testing.T) {
	_, err := BuildWithRoot(nil, nil)
	require.ErrorIs(t, err, ErrNilNode)
}

func TestSplitPath_NormalisesToNFC(t *testing.T) {
	segments, err := SplitPath("/cafe\u0301/x")
	require.NoError(t, err)
	assert.Equal(t, []string{"caf\u00e9", "x"}, segments)
}
