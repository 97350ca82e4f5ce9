package metrics

var IOBytes = ioBytes
