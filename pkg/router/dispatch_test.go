package router

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func dispatch(t *testing.T, r *Router, path string) bool {
	t.Helper()
	matched, err := r.Dispatch(context.Background(), MethodOn, path, nil)
	if err != nil {
		t.Fatalf("Dispatch(%q) error = %v", path, err)
	}
	return matched
}

func TestLiteralRouteHasNoCaptures(t *testing.T) {
	r := New()
	rec := &recorder{}

	for _, p := range []string{"/blog", "/about.html", "/a/b/c"} {
		if err := r.Route(p, rec.handler(p)); err != nil {
			t.Fatalf("Route(%q) error = %v", p, err)
		}
	}

	for _, p := range []string{"/blog", "/about.html", "/a/b/c"} {
		m := r.Match(MethodOn, p)
		if !m.Matched {
			t.Errorf("Match(%q) did not match", p)
			continue
		}
		if len(m.Captures) != 0 {
			t.Errorf("Match(%q).Captures = %v, want none", p, m.Captures)
		}
		if m.Pattern != p {
			t.Errorf("Match(%q).Pattern = %q", p, m.Pattern)
		}
	}
}

func TestParamCapturesInOrder(t *testing.T) {
	r := New()
	rec := &recorder{}
	r.Route("/:a/:b", rec.handler("h"))

	if !dispatch(t, r, "/x/y") {
		t.Fatal("Dispatch(/x/y) did not match")
	}
	if diff := cmp.Diff([]string{"h(x,y)"}, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistrationOrder(t *testing.T) {
	r := New()
	rec := &recorder{}
	r.Route("/x", rec.handler("A"))
	r.Route("/x", rec.handler("B"), rec.handler("C"))

	dispatch(t, r, "/x")

	if diff := cmp.Diff([]string{"A", "B", "C"}, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestOnceFiresOnce(t *testing.T) {
	r := New()
	rec := &recorder{}
	r.Once("/x", rec.handler("once"))
	r.Route("/x", rec.handler("on"))

	for i := 0; i < 3; i++ {
		dispatch(t, r, "/x")
	}

	want := []string{"once", "on", "on", "on"}
	if diff := cmp.Diff(want, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestOnceMethod(t *testing.T) {
	r := New()
	rec := &recorder{}
	r.On(MethodOnce, "/x", rec.handler("once"))

	dispatch(t, r, "/x")
	dispatch(t, r, "/x")

	if got := rec.got(); len(got) != 1 {
		t.Errorf("calls = %v, want one", got)
	}
}

func TestRecurse(t *testing.T) {
	tests := []struct {
		mode RecurseMode
		want []string
	}{
		{RecurseOff, []string{"child"}},
		{RecurseForward, []string{"parent", "child"}},
		{RecurseBackward, []string{"child", "parent"}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			r := New(WithRecurse(tt.mode))
			rec := &recorder{}
			r.Route("/", rec.handler("parent"))
			r.Route("/child", rec.handler("child"))

			dispatch(t, r, "/child")

			if diff := cmp.Diff(tt.want, rec.got()); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecurseNestedLevels(t *testing.T) {
	r := New(WithRecurse(RecurseForward))
	rec := &recorder{}
	r.Route("/", rec.handler("root"))
	r.Route("/:channel", rec.handler("channel"))
	r.Before("/:channel/:category", rec.handler("before"))
	r.Route("/:channel/:category", rec.handler("category"))
	r.Route(`/:channel/:category/(.*\.html)`, rec.handler("post"))

	dispatch(t, r, "/life/travel/hello.html")

	c := "(life,travel,hello.html)"
	want := []string{"root" + c, "channel" + c, "before" + c, "category" + c, "post" + c}
	if diff := cmp.Diff(want, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestNotFoundOnly(t *testing.T) {
	rec := &recorder{}
	r := New(
		WithNotFound(rec.handler("notfound")),
		WithEvery(Hooks{Before: rec.handler("every.before"), After: rec.handler("every.after")}),
	)
	r.Route("/a", rec.handler("a"))
	r.Before("/a", rec.handler("before"))

	matched, err := r.Dispatch(context.Background(), MethodOn, "/zzz", nil)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if matched {
		t.Error("Dispatch(/zzz) = true, want false")
	}
	if diff := cmp.Diff([]string{"notfound(/zzz)"}, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmatchedWithoutNotFoundIsNoop(t *testing.T) {
	rec := &recorder{}
	r := New(WithEvery(Hooks{Before: rec.handler("every.before")}))
	r.Route("/a", rec.handler("a"))

	var doneCalled bool
	matched, err := r.Dispatch(context.Background(), MethodOn, "/b", func(err error) {
		doneCalled = true
		if err != nil {
			t.Errorf("done(%v), want nil", err)
		}
	})
	if matched || err != nil {
		t.Errorf("Dispatch(/b) = %v, %v; want false, nil", matched, err)
	}
	if !doneCalled {
		t.Error("done was not called")
	}
	if got := rec.got(); len(got) != 0 {
		t.Errorf("calls = %v, want none", got)
	}
	if r.State() != StateSettled {
		t.Errorf("State() = %v, want settled", r.State())
	}
}

func TestStrictTrailingDelimiter(t *testing.T) {
	tests := []struct {
		strict bool
		path   string
		want   bool
	}{
		{true, "/channel", true},
		{true, "/channel/", false},
		{false, "/channel", true},
		{false, "/channel/", true},
		{false, "/channel//", false},
	}

	for _, tt := range tests {
		r := New(WithStrict(tt.strict))
		r.Route("/channel", func(context.Context, ...string) error { return nil })

		if got := r.Match(MethodOn, tt.path).Matched; got != tt.want {
			t.Errorf("strict=%v Match(%q) = %v, want %v", tt.strict, tt.path, got, tt.want)
		}
	}
}

func TestPathScope(t *testing.T) {
	r := New()
	rec := &recorder{}

	err := r.Path("/blog", func(r *Router) error {
		return r.Route("/:category", rec.handler("cat"))
	})
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}

	dispatch(t, r, "/blog/tech")

	if diff := cmp.Diff([]string{"cat(tech)"}, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if r.Match(MethodOn, "/tech").Matched {
		t.Error("route registered outside its scope")
	}
}

func TestPathScopesNest(t *testing.T) {
	r := New()
	rec := &recorder{}

	err := r.Path("/a", func(r *Router) error {
		if err := r.Route("/", rec.handler("a")); err != nil {
			return err
		}
		return r.Path("/:b", func(r *Router) error {
			return r.Route("/c", rec.handler("c"))
		})
	})
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	if err := r.Route("/d", rec.handler("d")); err != nil {
		t.Fatal(err)
	}

	dispatch(t, r, "/a")
	dispatch(t, r, "/a/x/c")
	dispatch(t, r, "/d")

	want := []string{"a", "c(x)", "d"}
	if diff := cmp.Diff(want, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestPathPropagatesBuildError(t *testing.T) {
	r := New()
	boom := errors.New("boom")
	if err := r.Path("/a", func(*Router) error { return boom }); err != boom {
		t.Errorf("Path() error = %v, want %v", err, boom)
	}
	if err := r.Route("/b", func(context.Context, ...string) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if !r.Match(MethodOn, "/b").Matched {
		t.Error("scope was not popped after a failed build")
	}
}

func TestLiteralBeatsParam(t *testing.T) {
	r := New()
	rec := &recorder{}
	r.Route("/*", rec.handler("wild"))
	r.Route("/:x", rec.handler("param"))
	r.Route("/new", rec.handler("literal"))

	dispatch(t, r, "/new")
	dispatch(t, r, "/other")
	dispatch(t, r, "/a@b")

	want := []string{"literal", "param(other)", "wild(a@b)"}
	if diff := cmp.Diff(want, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestBacktracking(t *testing.T) {
	r := New()
	rec := &recorder{}
	r.Route("/a/b/c", rec.handler("abc"))
	r.Route("/:x/d", rec.handler("xd"))

	if !dispatch(t, r, "/a/d") {
		t.Fatal("Dispatch(/a/d) did not match")
	}
	if diff := cmp.Diff([]string{"xd(a)"}, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRootRoute(t *testing.T) {
	r := New()
	rec := &recorder{}
	r.Route("/", rec.handler("root"))

	dispatch(t, r, "/")
	dispatch(t, r, "")

	if diff := cmp.Diff([]string{"root", "root"}, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestWildcardAndGroups(t *testing.T) {
	r := New()
	rec := &recorder{}
	r.Route("/files/*", rec.handler("file"))
	r.Route(`/:channel/:category/(.*\.html)`, rec.handler("post"))
	r.Route(`/raw/(.*/.*\.txt)`, rec.handler("raw"))

	dispatch(t, r, "/files/a.txt")
	dispatch(t, r, "/life/travel/hello.html")
	dispatch(t, r, "/raw/x/y.txt")

	want := []string{"file(a.txt)", "post(life,travel,hello.html)", "raw(x/y.txt)"}
	if diff := cmp.Diff(want, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestCustomParam(t *testing.T) {
	r := New()
	rec := &recorder{}
	if err := r.Param("id", `[0-9]+`); err != nil {
		t.Fatal(err)
	}
	r.Route("/post/:id", rec.handler("post"))

	if !dispatch(t, r, "/post/42") {
		t.Error("Dispatch(/post/42) did not match")
	}
	if dispatch(t, r, "/post/abc") {
		t.Error("Dispatch(/post/abc) matched")
	}
	if diff := cmp.Diff([]string{"post(42)"}, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestOnRegexp(t *testing.T) {
	r := New()
	rec := &recorder{}
	if err := r.OnRegexp(MethodOn, regexp.MustCompile(`^\/articles\/(\d+)$`), rec.handler("article")); err != nil {
		t.Fatalf("OnRegexp() error = %v", err)
	}

	dispatch(t, r, "/articles/12")

	if diff := cmp.Diff([]string{"article(12)"}, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestOnPatterns(t *testing.T) {
	r := New()
	rec := &recorder{}
	if err := r.OnPatterns(MethodOn, []string{"/a", "/b/:id"}, rec.handler("h")); err != nil {
		t.Fatal(err)
	}

	dispatch(t, r, "/a")
	dispatch(t, r, "/b/7")

	if diff := cmp.Diff([]string{"h", "h(7)"}, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestHookOrder(t *testing.T) {
	rec := &recorder{}
	r := New(WithEvery(Hooks{
		Before: rec.handler("every.before"),
		On:     rec.handler("every.on"),
		After:  rec.handler("every.after"),
	}))
	r.Before("/a", rec.handler("before"))
	r.Route("/a", rec.handler("on"))
	r.After("/a", rec.handler("after"))

	dispatch(t, r, "/a")

	want := []string{"every.before", "before", "on", "every.on", "after", "every.after"}
	if diff := cmp.Diff(want, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestAfterOnLeave(t *testing.T) {
	rec := &recorder{}
	r := New(
		WithAfterOnLeave(true),
		WithEvery(Hooks{Before: rec.handler("every.before")}),
	)
	r.Route("/a/:id", rec.handler("a"))
	r.After("/a/:id", rec.handler("leave-a"))
	r.Route("/b", rec.handler("b"))

	dispatch(t, r, "/a/1")
	dispatch(t, r, "/b")
	dispatch(t, r, "/b")

	want := []string{
		"every.before(1)", "a(1)",
		"every.before", "leave-a(1)", "b",
		"every.before", "b",
	}
	if diff := cmp.Diff(want, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmatchedDropsOwedHooks(t *testing.T) {
	rec := &recorder{}
	r := New(WithAfterOnLeave(true))
	r.Route("/a", rec.handler("a"))
	r.After("/a", rec.handler("leave-a"))
	r.Route("/b", rec.handler("b"))

	dispatch(t, r, "/a")
	dispatch(t, r, "/missing")
	dispatch(t, r, "/b")

	if diff := cmp.Diff([]string{"a", "b"}, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestErrStopHaltsNavigation(t *testing.T) {
	rec := &recorder{}
	r := New(WithEvery(Hooks{After: rec.handler("every.after")}))
	r.Route("/x", rec.returning("stop", ErrStop), rec.handler("next"))
	r.After("/x", rec.handler("after"))

	var got error = errors.New("done not called")
	matched, err := r.Dispatch(context.Background(), MethodOn, "/x", func(err error) { got = err })
	if !matched || err != nil {
		t.Errorf("Dispatch() = %v, %v; want true, nil", matched, err)
	}
	if got != nil {
		t.Errorf("done(%v), want nil", got)
	}
	if diff := cmp.Diff([]string{"stop"}, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestHandlerErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{}
	r := New()
	r.Route("/x", rec.returning("fail", boom), rec.handler("next"))

	matched, err := r.Dispatch(context.Background(), MethodOn, "/x", nil)
	if !matched {
		t.Error("Dispatch() did not match")
	}
	if err != boom {
		t.Errorf("Dispatch() error = %v, want %v", err, boom)
	}
	if diff := cmp.Diff([]string{"fail"}, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestNotFoundErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	r := New(WithNotFound(func(context.Context, ...string) error { return boom }))

	matched, err := r.Dispatch(context.Background(), MethodOn, "/x", nil)
	if matched {
		t.Error("Dispatch() matched")
	}
	if err != boom {
		t.Errorf("Dispatch() error = %v, want %v", err, boom)
	}
}

func TestHandlerPanicsAreNotRecovered(t *testing.T) {
	r := New()
	r.Route("/x", func(context.Context, ...string) error { panic("handler") })

	defer func() {
		if recover() == nil {
			t.Error("panic was recovered by the router")
		}
	}()
	r.Dispatch(context.Background(), MethodOn, "/x", nil)
}

func TestExtendedMethod(t *testing.T) {
	r := New()
	rec := &recorder{}
	r.Extend("show")
	r.On("show", "/:id", rec.handler("show"))
	r.Route("/:id", rec.handler("on"))

	if _, err := r.Dispatch(context.Background(), "show", "/7", nil); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"show(7)"}, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if r.Match("hide", "/7").Matched {
		t.Error("Match(hide) matched a route without hide handlers")
	}
}

func TestMiddlewareWrapsDispatch(t *testing.T) {
	rec := &recorder{}
	r := New(WithNotFound(rec.handler("notfound")))
	r.Route("/x", rec.handler("x"))

	wrap := func(name string) Middleware {
		return MiddlewareFunc(func(ctx context.Context, nav *Navigation, next func(context.Context) error) error {
			rec.record(name+">", nil)
			err := next(ctx)
			rec.record("<"+name, nil)
			return err
		})
	}
	r.Use(wrap("m1"), Only(Matched, wrap("m2")))

	dispatch(t, r, "/x")
	dispatch(t, r, "/y")

	want := []string{
		"m1>", "m2>", "x", "<m2", "<m1",
		"m1>", "notfound(/y)", "<m1",
	}
	if diff := cmp.Diff(want, rec.got()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestMatchResult(t *testing.T) {
	r := New(WithRecurse(RecurseForward))
	h := func(context.Context, ...string) error { return nil }
	r.Route("/", h)
	r.Before("/:a", h)
	r.Route("/:a", h, h)
	r.After("/:a", h)

	m := r.Match(MethodOn, "/x")
	if !m.Matched {
		t.Fatal("Match() did not match")
	}
	if m.Pattern != "/:a" {
		t.Errorf("Pattern = %q", m.Pattern)
	}
	if len(m.Chain) != 2 {
		t.Errorf("len(Chain) = %d, want 2", len(m.Chain))
	}
	if m.Len() != 4 {
		t.Errorf("Len() = %d, want 4", m.Len())
	}
	if len(m.After) != 1 {
		t.Errorf("len(After) = %d, want 1", len(m.After))
	}
	if diff := cmp.Diff([]string{"x"}, m.Captures); diff != "" {
		t.Errorf("Captures mismatch (-want +got):\n%s", diff)
	}

	var nilResult *MatchResult
	if nilResult.Len() != 0 {
		t.Error("nil MatchResult Len() != 0")
	}
}

func TestStateAfterDispatch(t *testing.T) {
	r := New()
	var during State
	r.Route("/x", func(context.Context, ...string) error {
		during = r.State()
		return nil
	})

	if r.State() != StateIdle {
		t.Errorf("State() = %v before dispatch", r.State())
	}
	dispatch(t, r, "/x")
	if during != StateDispatching {
		t.Errorf("State() during dispatch = %v, want dispatching", during)
	}
	if r.State() != StateSettled {
		t.Errorf("State() = %v after dispatch, want settled", r.State())
	}

	r.Destroy()
	if r.State() != StateIdle {
		t.Errorf("State() = %v after Destroy, want idle", r.State())
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateResolving, "resolving"},
		{StateMatched, "matched"},
		{StateUnmatched, "unmatched"},
		{StateDispatching, "dispatching"},
		{StateSettled, "settled"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
