// Package rootserver hard-codes the 13 IANA root nameservers used to seed a
// resolution when nothing closer is found in cache.
package rootserver

import "github.com/poyrazK/dnscore/internal/dnsmsg"

// Hint pairs a root nameserver's name with its IPv4 glue address.
type Hint struct {
	Name dnsmsg.Name
	Addr dnsmsg.Addr4
}

// Hints lists the 13 root nameservers authoritative for ".".
var Hints = []Hint{
	{mustName("a.root-servers.net."), dnsmsg.Addr4{198, 41, 0, 4}},
	{mustName("b.root-servers.net."), dnsmsg.Addr4{199, 9, 14, 201}},
	{mustName("c.root-servers.net."), dnsmsg.Addr4{192, 33, 4, 12}},
	{mustName("d.root-servers.net."), dnsmsg.Addr4{199, 7, 91, 13}},
	{mustName("e.root-servers.net."), dnsmsg.Addr4{192, 203, 230, 10}},
	{mustName("f.root-servers.net."), dnsmsg.Addr4{192, 5, 5, 241}},
	{mustName("g.root-servers.net."), dnsmsg.Addr4{192, 112, 36, 4}},
	{mustName("h.root-servers.net."), dnsmsg.Addr4{198, 97, 190, 53}},
	{mustName("i.root-servers.net."), dnsmsg.Addr4{192, 36, 148, 17}},
	{mustName("j.root-servers.net."), dnsmsg.Addr4{192, 58, 128, 30}},
	{mustName("k.root-servers.net."), dnsmsg.Addr4{193, 0, 14, 129}},
	{mustName("l.root-servers.net."), dnsmsg.Addr4{199, 7, 83, 42}},
	{mustName("m.root-servers.net."), dnsmsg.Addr4{202, 12, 27, 33}},
}

func mustName(s string) dnsmsg.Name {
	n, err := dnsmsg.NewName(s)
	if err != nil {
		panic(err)
	}
	return n
}
