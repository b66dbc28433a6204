// Package suiteindex discovers the test suites that a built application declares in its
// dependency registry and renders them as links to the test-runner page.
//
// The registry is supplied through the DependencyCatalog interface. In the browser it is the
// module loader's own bookkeeping; on disk it is the deps file produced by the build, which
// LoadDepsFile reads. A nil catalog stands for an optimized build where no registry exists,
// and discovery then yields nothing.
package suiteindex
